// Package poller runs a job periodically until it is stopped.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	applogger "KryptoMarket/pkg/logger"

	"github.com/robfig/cron/v3"
)

var ErrAlreadyStarted = errors.New("poller: already started")

// Job receives a context that is cancelled when the task stops.
type Job func(ctx context.Context)

// Task is a cancellable periodic task. A run that is still in progress when the
// next tick fires causes that tick to be skipped, so runs never overlap.
type Task struct {
	name   string
	period time.Duration
	job    Job
	log    *applogger.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a stopped task. Periods below one second are rounded up by the scheduler.
func New(name string, period time.Duration, job Job, l *applogger.Logger) *Task {
	if l == nil {
		l = applogger.Nop()
	}
	return &Task{
		name:   name,
		period: period,
		job:    job,
		log:    l.With(applogger.String("task", name)),
	}
}

// Start runs the job once right away and then every period until Stop is
// called or ctx is done.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrAlreadyStarted
	}

	jobCtx, cancel := context.WithCancel(ctx)
	cronLog := cron.PrintfLogger(t.log)
	c := cron.New(cron.WithLogger(cronLog))

	wrapped := cron.NewChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	).Then(cron.FuncJob(func() {
		if jobCtx.Err() != nil {
			return
		}
		t.job(jobCtx)
	}))
	c.Schedule(cron.Every(t.period), wrapped)

	t.cron = c
	t.cancel = cancel
	t.running = true

	c.Start()
	t.wg.Add(2)
	go func() {
		defer t.wg.Done()
		wrapped.Run()
	}()
	go func() {
		defer t.wg.Done()
		<-jobCtx.Done()
		<-c.Stop().Done()
	}()

	t.log.Debug("poller started", applogger.Duration("period_ms", t.period))
	return nil
}

// Stop cancels the job context and waits for an in-flight run to return.
// It is safe to call more than once.
func (t *Task) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	cancel := t.cancel
	t.mu.Unlock()

	cancel()
	t.wg.Wait()
	t.log.Debug("poller stopped")
}

// Running reports whether Start was called without a matching Stop.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
