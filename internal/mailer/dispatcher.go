package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fmeta/backend/internal/metrics"
)

// ErrQueueFull is returned when the dispatcher cannot accept more mail.
var ErrQueueFull = errors.New("mail queue full")

var errDispatcherClosed = errors.New("mail dispatcher closed")

// DispatcherConfig controls the concurrency characteristics of the dispatcher.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher sends verification mail from a bounded queue on background workers so
// registration never waits on SMTP.
type Dispatcher struct {
	sender      Sender
	logger      *slog.Logger
	sendTimeout time.Duration

	jobs   chan Verification
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker pool.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sender:      sender,
		logger:      logger,
		sendTimeout: cfg.SendTimeout,
		jobs:        make(chan Verification, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// SendVerification queues msg without blocking. It fails fast when the queue is full
// or the dispatcher is shutting down.
func (d *Dispatcher) SendVerification(ctx context.Context, msg Verification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.jobs <- msg:
		metrics.MailQueueDepth.Inc()
		return nil
	default:
		metrics.MailDeliveries.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Shutdown stops accepting mail and waits for queued messages to be sent.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.jobs {
		metrics.MailQueueDepth.Dec()
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Verification) {
	if d.sender == nil {
		d.logger.Error("mail dispatcher missing sender", "to", msg.To)
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sender.SendVerification(ctx, msg); err != nil {
		d.logger.Error("verification mail failed", "to", msg.To, "error", err)
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		return
	}
	metrics.MailDeliveries.WithLabelValues("sent").Inc()
}
