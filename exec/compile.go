package exec

// End-to-end compilation. The phases are strictly ordered: the statement is
// parsed and checked, the discovery phase runs to completion and fixes the
// by-value member sets, only then the main phase is generated, dispatched
// and assembled. No main query is ever issued while a discovery query is
// still in flight.

import (
	"context"

	"go.uber.org/zap"

	"github.com/jasonphillips/tplm/grid"
	"github.com/jasonphillips/tplm/plan"
	"github.com/jasonphillips/tplm/tpl"
)

// Compile runs one TPL statement against the executor and returns the
// assembled grid.
func Compile(
	ctx context.Context,
	source string,
	schema *plan.Schema,
	executor Executor,
	log *zap.Logger,
) (*grid.Grid, error) {
	if log == nil {
		log = zap.NewNop()
	}

	stmt, err := tpl.Parse(source)
	if err != nil {
		return nil, err
	}

	pending, err := plan.NewBuilder(schema).Build(stmt)
	if err != nil {
		return nil, err
	}

	d := NewDispatcher(executor, log)

	discovery := pending.DiscoveryQueries()
	var discovered plan.ResultSet
	if len(discovery) > 0 {
		log.Debug("discovery phase", zap.Int("queries", len(discovery)))
		discovered, err = d.Dispatch(ctx, discovery)
		if err != nil {
			return nil, err
		}
	} else {
		discovered = plan.ResultSet{}
	}

	spec, err := pending.Resolve(discovered)
	if err != nil {
		return nil, err
	}

	qp, err := plan.BuildPlan(discovery, spec)
	if err != nil {
		return nil, err
	}

	log.Debug("main phase", zap.Int("queries", len(qp.Main)))
	results, err := d.Dispatch(ctx, qp.Main)
	if err != nil {
		return nil, err
	}

	return grid.Assemble(spec, qp, results)
}
