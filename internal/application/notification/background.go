package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/community-hub/internal/domain"
	"go.uber.org/zap"
)

// Background wraps a Dispatcher that talks to a remote service so that Add
// does not wait on it. Each notification is delivered from its own goroutine
// on a context detached from the caller's request, bounded by timeout.
type Background struct {
	next    Dispatcher
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewBackground(next Dispatcher, timeout time.Duration, log *zap.Logger) *Background {
	if log == nil {
		log = zap.NewNop()
	}
	return &Background{next: next, timeout: timeout, log: log}
}

// Dispatch queues delivery and returns immediately. Delivery errors are logged.
func (b *Background) Dispatch(ctx context.Context, n domain.Notification) error {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		if err := b.next.Dispatch(ctx, n); err != nil {
			b.log.Warn("background notification dispatch failed",
				zap.String("notification_id", n.NotificationID),
				zap.String("dispatcher", fmt.Sprintf("%T", b.next)),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until every delivery queued so far has finished.
func (b *Background) Wait() {
	b.wg.Wait()
}
