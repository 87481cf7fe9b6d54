package exec

import (
	"context"
	"fmt"

	"github.com/jasonphillips/tplm/plan"
)

// Executor runs one grouped aggregate query and returns its result rows.
// Implementations must honor the context and must return nil aggregate
// values, never zero, for groups the backing store has no number for.
type Executor interface {
	Run(ctx context.Context, q *plan.GroupingQuery) ([]plan.ResultRow, error)
}

// ExecutionError wraps a backend failure with the query that triggered it.
type ExecutionError struct {
	Query string
	Err   error
}

func (self *ExecutionError) Error() string {
	return fmt.Sprintf("stage(exec): query %s: %s", self.Query, self.Err)
}

func (self *ExecutionError) Unwrap() error { return self.Err }

func execErr(q *plan.GroupingQuery, err error) error {
	return &ExecutionError{
		Query: q.Key(),
		Err:   err,
	}
}
