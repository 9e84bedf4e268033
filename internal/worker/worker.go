// Package worker drains the add request queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibhubhatta/wecare/internal/alert"
	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/reconcile"
	"github.com/bibhubhatta/wecare/internal/requests"
	"github.com/bibhubhatta/wecare/lib/telemetry"
)

const (
	report_worker_poll    = "worker.poll"
	report_worker_process = "worker.process"
	report_worker_message = "worker.message"
)

const DefaultPollInterval = 500 * time.Millisecond

type Queue interface {
	Pending(ctx context.Context) ([]requests.Request, error)
	AppendMessage(ctx context.Context, id, message string) error
	Complete(ctx context.Context, id string, result requests.Result) error
}

type Reconciler interface {
	AddItem(ctx context.Context, code string, progress reconcile.Progress) (reconcile.Outcome, error)
	AddManual(ctx context.Context, code, name string, progress reconcile.Progress) (reconcile.Outcome, error)
}

type Options struct {
	PollInterval time.Duration
}

type Worker struct {
	queue   Queue
	engine  Reconciler
	alerter alert.Alerter
	tel     telemetry.API
	opts    Options
}

func New(queue Queue, engine Reconciler, alerter alert.Alerter, tel telemetry.API, opts Options) Worker {
	assert.NotNil(queue)
	assert.NotNil(engine)
	assert.NotNil(alerter)
	assert.NotNil(tel)
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return Worker{
		queue:   queue,
		engine:  engine,
		alerter: alerter,
		tel:     telemetry.NewScopedAPI("worker", tel),
		opts:    opts,
	}
}

// Run polls the queue until the context is cancelled or authentication
// times out. Requests are processed one at a time in the order they were
// made.
func (w Worker) Run(ctx context.Context) error {
	for {
		err := w.ProcessPending(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.opts.PollInterval):
		}
	}
}

// ProcessPending processes every pending request. It only returns an error
// for failures that should stop the worker.
func (w Worker) ProcessPending(ctx context.Context) error {
	pending, err := w.queue.Pending(ctx)
	if err != nil {
		// the database may be briefly locked, try again next poll
		w.tel.ReportBroken(report_worker_poll, err)
		return nil
	}
	if len(pending) > 0 {
		w.tel.ReportCount("pending", int64(len(pending)))
	}

	for _, req := range pending {
		err := w.Process(ctx, req)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (w Worker) progress(ctx context.Context, id string) reconcile.Progress {
	return func(message string) {
		err := w.queue.AppendMessage(ctx, id, message)
		if err != nil {
			w.tel.ReportBroken(report_worker_message, err, id)
		}
	}
}

// Process runs a single request and records its result. Authentication
// timeouts leave the request pending, alert the operator and are returned.
func (w Worker) Process(ctx context.Context, req requests.Request) error {
	w.tel.ReportDebug("processing request", req.ID, req.UPC, req.ItemName)
	progress := w.progress(ctx, req.ID)

	var outcome reconcile.Outcome
	var err error
	if req.Manual() {
		outcome, err = w.engine.AddManual(ctx, req.UPC, req.ItemName, progress)
	} else {
		outcome, err = w.engine.AddItem(ctx, req.UPC, progress)
	}

	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, inventory.ErrAuthTimeout) {
		progress(fmt.Sprintf("Error: %v", err))
		w.tel.ReportBroken(report_worker_process, err, req.ID)
		alertErr := w.alerter.Alert(
			ctx,
			"PantrySoft login timed out",
			fmt.Sprintf("Processing request %s for %s stopped: %v", req.ID, req.UPC, err),
		)
		if alertErr != nil {
			w.tel.ReportBroken(report_worker_process, fmt.Errorf("alert: %w", alertErr))
		}
		return err
	}

	result := resultOf(req, outcome, err)
	if err != nil {
		w.tel.ReportWarning(report_worker_process, err, req.ID)
	}
	err = w.queue.Complete(ctx, req.ID, result)
	if err != nil {
		w.tel.ReportBroken(report_worker_process, fmt.Errorf("complete: %w", err), req.ID)
	}
	return nil
}

func resultOf(req requests.Request, outcome reconcile.Outcome, err error) requests.Result {
	if err != nil {
		// the session was already dropped by the client, the next request
		// logs in again
		return requests.Result{Message: fmt.Sprintf("Error: %v", err)}
	}

	switch outcome.Result {
	case inventory.AlreadyExists:
		return requests.Result{
			Success:         true,
			ItemDescription: outcome.Description,
			ItemImageURL:    outcome.ImageURL,
		}
	case inventory.Added:
		description := outcome.Description
		if req.Manual() {
			description = fmt.Sprintf("%s %s", outcome.Description, req.ItemName)
		}
		return requests.Result{
			Success:         true,
			ItemDescription: description,
			ItemImageURL:    outcome.ImageURL,
		}
	}
	return requests.Result{}
}
