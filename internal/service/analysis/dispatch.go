package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
)

var errNotifierClosed = stderrors.New("notification dispatcher closed")

// notificationDispatcher delivers rule notifications off the request path.
// Deliveries are queued up to a fixed depth and run one at a time by a single
// worker, each under its own timeout. A full queue drops the notification.
type notificationDispatcher struct {
	notifier Notifier
	timeout  time.Duration
	queue    chan delivery
	logger   *zap.Logger

	// onFailure reports a dropped or failed delivery
	onFailure func(ctx context.Context, n analysis.Notification, err error)

	mu      sync.Mutex
	pending int
	idle    []chan struct{}
	closed  bool
	stopped chan struct{}
}

type delivery struct {
	ctx context.Context
	n   analysis.Notification
}

func newNotificationDispatcher(notifier Notifier, queueSize int, timeout time.Duration, logger *zap.Logger,
	onFailure func(context.Context, analysis.Notification, error)) *notificationDispatcher {
	d := &notificationDispatcher{
		notifier:  notifier,
		timeout:   timeout,
		queue:     make(chan delivery, queueSize),
		logger:    logger,
		onFailure: onFailure,
		stopped:   make(chan struct{}),
	}
	go d.run()
	return d
}

// enqueue hands n to the worker. The delivery keeps ctx's values but not its
// cancellation, since the request that fired the rule has already returned.
func (d *notificationDispatcher) enqueue(ctx context.Context, n analysis.Notification) {
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.onFailure(ctx, n, errNotifierClosed)
		return
	}
	select {
	case d.queue <- delivery{ctx: ctx, n: n}:
		d.pending++
		d.mu.Unlock()
	default:
		d.mu.Unlock()
		d.onFailure(ctx, n, fmt.Errorf("notification queue full: %d pending", cap(d.queue)))
	}
}

func (d *notificationDispatcher) run() {
	defer close(d.stopped)
	for item := range d.queue {
		d.deliver(item)
		d.done()
	}
}

func (d *notificationDispatcher) deliver(item delivery) {
	ctx := item.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			d.onFailure(item.ctx, item.n, errors.NewInternalError(fmt.Sprintf("notifier panicked: %v", r)))
		}
	}()

	start := time.Now()
	if err := d.notifier.Notify(ctx, item.n); err != nil {
		d.onFailure(item.ctx, item.n, err)
		return
	}
	d.logger.Debug("notification delivered",
		zap.String("rule_id", item.n.RuleID),
		zap.String("analysis_id", item.n.AnalysisID),
		zap.Duration("took", time.Since(start)),
	)
}

func (d *notificationDispatcher) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending--
	if d.pending == 0 {
		for _, ch := range d.idle {
			close(ch)
		}
		d.idle = nil
	}
}

// flush waits until every queued notification has been attempted.
func (d *notificationDispatcher) flush(ctx context.Context) error {
	d.mu.Lock()
	if d.pending == 0 {
		d.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	d.idle = append(d.idle, ch)
	d.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting notifications, then waits for the queue to drain and
// the worker to exit.
func (d *notificationDispatcher) close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
