package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/port"
)

// Notifier is the cross-tab listener: it subscribes to the session store's
// mutation signals and triggers a full re-derivation of the controller on
// every foreign signal. No filtering by key — over-triggering a complete
// re-derivation beats missing a relevant change.
type Notifier struct {
	store  port.SessionStore
	ctrl   *Controller
	logger *zap.Logger

	metrics *observability.Metrics
	cancel  func()
	done    chan struct{}
}

// NewNotifier creates a notifier bound to one controller.
func NewNotifier(store port.SessionStore, ctrl *Controller, metrics *observability.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{
		store:   store,
		ctrl:    ctrl,
		logger:  logger,
		metrics: metrics,
	}
}

// Start subscribes to the store and dispatches signals until Stop is called
// or the context ends.
func (n *Notifier) Start(ctx context.Context) error {
	signals, cancel, err := n.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	n.cancel = cancel
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		for {
			select {
			case sig, ok := <-signals:
				if !ok {
					return
				}
				// Skip this context's own writes, like browser storage
				// events that only fire in other tabs.
				if sig.Origin == n.store.Origin() {
					continue
				}
				n.metrics.IncrCrossTabSignal()
				n.logger.Debug("cross-tab signal",
					zap.String("key", sig.Key),
					zap.String("origin", sig.Origin),
				)
				n.ctrl.OnCrossTabSignal(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop unsubscribes and waits for the dispatch loop to drain.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	if n.done != nil {
		<-n.done
	}
}
