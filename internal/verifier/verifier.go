package verifier

import (
	"context"
	"net/url"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

// Probe is the slice of a proxy candidate the verifier needs.
type Probe interface {
	Address() string
	URL() *url.URL
}

type Output struct {
	Alive    bool
	Latency  time.Duration
	EgressIP string
	Error    error
}

type Checker interface {
	Check(ctx context.Context, p Probe) Output
}

// TaskExecutor defines the contract for running checks concurrently
type TaskExecutor interface {
	Submit(ctx context.Context, job func(ctx context.Context)) error
	Stop()
}

type Verifier struct {
	checker Checker
	pool    TaskExecutor
	logger  logs.Logger
}

func New(checker Checker, pool TaskExecutor, logger logs.Logger) *Verifier {
	return &Verifier{
		checker: checker,
		pool:    pool,
		logger:  logger,
	}
}

type Report struct {
	Address string
	Output  Output
}

type indexedReport struct {
	index  int
	report Report
}

// VerifyAll checks every probe concurrently and returns reports in the
// same order as the input slice. Probes still in flight when ctx is
// cancelled come back with the context error.
func (v *Verifier) VerifyAll(ctx context.Context, probes []Probe) []Report {
	v.logger.Info("starting proxy verification", "count", len(probes))

	reports := make([]Report, len(probes))
	for i, p := range probes {
		reports[i] = Report{Address: p.Address()}
	}

	results := make(chan indexedReport, len(probes))

	submitted := 0
	for i, p := range probes {
		i, p := i, p

		err := v.pool.Submit(ctx, func(ctx context.Context) {
			results <- indexedReport{
				index:  i,
				report: Report{Address: p.Address(), Output: v.checker.Check(ctx, p)},
			}
		})
		if err != nil {
			reports[i].Output = Output{Error: err}
			continue
		}
		submitted++
	}

	for n := 0; n < submitted; n++ {
		select {
		case r := <-results:
			reports[r.index] = r.report
		case <-ctx.Done():
			v.logger.Warn("verification cancelled", "pending", submitted-n)
			for i := range reports {
				if reports[i].Output == (Output{}) {
					reports[i].Output.Error = ctx.Err()
				}
			}
			return reports
		}
	}

	v.logger.Info("verification completed")
	return reports
}
