// Package worker binds queued jobs to the services that process them.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"
	"asset-ledger/internal/service"
	"asset-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// Concurrency is the number of parallel handlers per queue.
type Concurrency struct {
	Settlement  int
	Exchange    int
	Maintenance int
}

// Worker consumes the settlement, exchange and maintenance queues.
type Worker struct {
	queue       ports.JobQueue
	settlement  ports.SettlementService
	exchange    ports.ExchangeService
	concurrency Concurrency
	log         zerolog.Logger
}

func New(
	queue ports.JobQueue,
	settlement ports.SettlementService,
	exchange ports.ExchangeService,
	concurrency Concurrency,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		queue:       queue,
		settlement:  settlement,
		exchange:    exchange,
		concurrency: concurrency,
		log:         log.With().Str("component", "worker").Logger(),
	}
}

type binding struct {
	queue       string
	name        string
	handler     ports.JobHandler
	concurrency int
}

func (w *Worker) bindings() []binding {
	return []binding{
		{ports.QueueSettlement, ports.JobProviderEvent, w.ack(w.HandleProviderEvent), w.concurrency.Settlement},
		{ports.QueueExchange, ports.JobExchangeSettle, w.ack(w.HandleExchangeSettle), w.concurrency.Exchange},
		{ports.QueueExchange, ports.JobExchangeReconcile, w.ack(w.HandleExchangeReconcile), w.concurrency.Exchange},
		{ports.QueueMaintenance, ports.JobDeleteVirtualAccount, w.ack(w.HandleDeleteVirtualAccount), w.concurrency.Maintenance},
	}
}

// Run blocks until ctx is cancelled and every consumer has returned.
func (w *Worker) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, b := range w.bindings() {
		n := b.concurrency
		if n < 1 {
			n = 1
		}
		wg.Add(1)
		go func(b binding, n int) {
			defer wg.Done()
			w.log.Info().Str("queue", b.queue).Str("job", b.name).Int("concurrency", n).Msg("consumer started")
			if err := w.queue.ProcessJobs(ctx, b.queue, b.name, b.handler, n); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(b, n)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// ack turns non-transient failures into acknowledgements so the queue only
// retries what a retry can fix.
func (w *Worker) ack(h ports.JobHandler) ports.JobHandler {
	return func(ctx context.Context, job ports.Job) error {
		err := h(ctx, job)
		if err == nil || apperror.IsTransient(err) {
			return err
		}
		w.log.Warn().Err(err).
			Str("queue", job.Queue).
			Str("job", job.Name).
			Str("job_id", job.ID).
			Int("attempt", job.Attempt).
			Msg("job rejected permanently")
		return nil
	}
}

func (w *Worker) HandleProviderEvent(ctx context.Context, job ports.Job) error {
	var event domain.ProviderEvent
	if err := decode(job, &event); err != nil {
		return err
	}
	return w.settlement.HandleEvent(ctx, &event)
}

func (w *Worker) HandleExchangeSettle(ctx context.Context, job ports.Job) error {
	var ex domain.ExchangeJob
	if err := decode(job, &ex); err != nil {
		return err
	}
	return w.exchange.HandleJob(ctx, ex, job.Attempt)
}

func (w *Worker) HandleExchangeReconcile(ctx context.Context, job ports.Job) error {
	var payload service.ReconcileTransferPayload
	if err := decode(job, &payload); err != nil {
		return err
	}
	return w.exchange.ReconcileTransfer(ctx, payload.JobID, payload.WalletID)
}

func (w *Worker) HandleDeleteVirtualAccount(ctx context.Context, job ports.Job) error {
	var payload service.DeleteVirtualAccountPayload
	if err := decode(job, &payload); err != nil {
		return err
	}
	return w.exchange.DeleteVirtualAccount(ctx, payload.VirtualAccountID)
}

func decode(job ports.Job, v any) error {
	if err := json.Unmarshal(job.Payload, v); err != nil {
		return apperror.ErrInvalidRequest("malformed " + job.Name + " payload: " + err.Error())
	}
	return nil
}
