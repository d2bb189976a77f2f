package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named background task triggered on a cron expression.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Cron drives jobs on standard five-field cron expressions. A tick
// that fires while the previous run of the same job is still going is
// skipped, so slow runs never pile up.
type Cron struct {
	runner *cron.Cron
	base   context.Context
}

func New() *Cron {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Cron{
		runner: cron.New(cron.WithParser(parser)),
		base:   context.Background(),
	}
}

func (c *Cron) Add(job Job, expr string) error {
	var busy atomic.Bool
	_, err := c.runner.AddFunc(expr, func() {
		logger := logutil.GetLogger(c.base).With(zap.String("job", job.Name()))
		if !busy.CompareAndSwap(false, true) {
			logger.Warn("previous run still active, skipping tick")
			return
		}
		defer busy.Store(false)
		start := time.Now()
		if err := job.Run(c.base); err != nil {
			logger.Error("job failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
			return
		}
		logger.Info("job done", zap.Duration("cost", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("add cron job %s (%q): %w", job.Name(), expr, err)
	}
	logutil.GetLogger(c.base).Info("job scheduled", zap.String("job", job.Name()), zap.String("expr", expr))
	return nil
}

func (c *Cron) Start(ctx context.Context) {
	if ctx != nil {
		c.base = ctx
	}
	c.runner.Start()
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (c *Cron) Stop() {
	<-c.runner.Stop().Done()
}
