package plan

import "fmt"

// CompileError reports a statement that references things the schema or the
// statement itself does not define. It is unrecoverable, the caller gets it
// before any query is generated.
type CompileError struct {
	Stage   string
	Message string
}

func (self *CompileError) Error() string {
	return fmt.Sprintf("stage(%s): %s", self.Stage, self.Message)
}

// PlanError reports an axis structure that cannot be planned, ie a by-value
// ordering whose aggregate cannot be resolved. Surfaced before any main
// query dispatch.
type PlanError struct {
	Message string
}

func (self *PlanError) Error() string {
	return fmt.Sprintf("stage(plan): %s", self.Message)
}

func compileErrf(stage string, f string, args ...interface{}) error {
	return &CompileError{
		Stage:   stage,
		Message: fmt.Sprintf(f, args...),
	}
}

func planErrf(f string, args ...interface{}) error {
	return &PlanError{
		Message: fmt.Sprintf(f, args...),
	}
}
