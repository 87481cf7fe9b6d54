package exec

// Phase dispatch. The queries of one phase are independent of each other
// and run concurrently with bounded parallelism, but the phase itself is a
// hard barrier: Dispatch returns either every result or an error, a caller
// can never observe a partially-executed phase. The first failure cancels
// the group's context and the remaining queries abort.

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jasonphillips/tplm/plan"
)

const defaultParallelism = 8

type Dispatcher struct {
	executor Executor
	log      *zap.Logger
	limit    int
}

func NewDispatcher(executor Executor, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		executor: executor,
		log:      log,
		limit:    defaultParallelism,
	}
}

// Parallelism bounds the number of in-flight queries of one phase.
func (self *Dispatcher) Parallelism(n int) *Dispatcher {
	if n > 0 {
		self.limit = n
	}
	return self
}

// Dispatch runs one phase to completion and keys the results the way the
// planner and the assembler look them up. Each worker writes its own slot,
// the result set is only built after the join barrier.
func (self *Dispatcher) Dispatch(
	ctx context.Context,
	queries []*plan.GroupingQuery,
) (plan.ResultSet, error) {
	rows := make([][]plan.ResultRow, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(self.limit)

	for i := range queries {
		i, q := i, queries[i]
		g.Go(func() error {
			out, err := self.executor.Run(gctx, q)
			if err != nil {
				self.log.Warn("query failed",
					zap.String("query", q.Key()),
					zap.Error(err),
				)
				return execErr(q, err)
			}
			self.log.Debug("query done",
				zap.String("query", q.Key()),
				zap.Int("rows", len(out)),
			)
			rows[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(plan.ResultSet, len(queries))
	for i, q := range queries {
		results[q.Key()] = rows[i]
	}
	return results, nil
}
