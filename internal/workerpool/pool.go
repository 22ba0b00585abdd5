package workerpool

import (
	"context"

	"github.com/panjf2000/ants/v2"
)

// Pool wraps ants with context-aware job submission. Jobs submitted
// with an already-cancelled context are accepted but never run.
type Pool struct {
	pool *ants.Pool
}

func New(size int) (*Pool, error) {
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

func (p *Pool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	return p.pool.Submit(func() {
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
}

func (p *Pool) Stop() {
	p.pool.Release()
}

func (p *Pool) Workers() int {
	return p.pool.Cap()
}
