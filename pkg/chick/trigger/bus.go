// Package trigger delivers sheet events to registered handlers.
//
// Events come from cell edits, workbook changes on disk and a periodic
// timer. Handlers run synchronously on the dispatching goroutine and run
// to completion.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

// Kind identifies the source of an event.
type Kind uint8

const (
	// Edit is a single cell edited by a user.
	Edit Kind = iota + 1
	// Change is a structural or formatting change to the workbook.
	Change
	// Timer is a periodic tick.
	Timer
)

func (k Kind) String() string {
	switch k {
	case Edit:
		return "edit"
	case Change:
		return "change"
	case Timer:
		return "timer"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is a single trigger.
type Event struct {
	Kind Kind
	// Row, Col and Value describe the edited cell of an Edit event.
	Row   int
	Col   int
	Value models.Value
	// Path is the changed file of a Change event.
	Path string
	At   time.Time
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// Bus fans events out to the handlers registered for their kind.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   *zap.Logger
}

// NewBus creates an empty bus. A nil logger discards output.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Register adds h for events of kind. Handlers run in registration order.
func (b *Bus) Register(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Dispatch runs every handler registered for ev.Kind. A failing handler
// does not stop the others; all errors are returned joined.
func (b *Bus) Dispatch(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	if len(hs) == 0 {
		b.logger.Debug("No handler for event", zap.Stringer("kind", ev.Kind))
		return nil
	}

	var errs []error
	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			b.logger.Warn("Handler failed", zap.Stringer("kind", ev.Kind), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
