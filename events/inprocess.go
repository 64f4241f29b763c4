package events

import (
	"context"
	"sync"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// InProcessBus delivers events synchronously to subscribers in registration
// order. Publish returns after every handler has run, which gives the caller
// a simple guarantee: when a CI publish returns, any triggered CD run has
// already completed.
type InProcessBus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

// NewInProcessBus creates an empty in-process bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{}
}

// Publish implements Bus.
func (b *InProcessBus) Publish(ctx context.Context, event domain.CompletionEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ferrors.New("events.publish", ferrors.CodeInvalidInput, "bus is closed")
	}
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
	return nil
}

// Subscribe implements Bus.
func (b *InProcessBus) Subscribe(handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ferrors.New("events.subscribe", ferrors.CodeInvalidInput, "bus is closed")
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

// Close implements Bus.
func (b *InProcessBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
