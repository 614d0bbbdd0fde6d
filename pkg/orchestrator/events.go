package orchestrator

import "github.com/storycraft/storycraft/pkg/models"

// Emitter receives progress events. Implementations must not assume they can
// slow down or fail the pipeline; emission is fire-and-forget.
type Emitter interface {
	Emit(models.Event)
}

// EmitterFunc adapts a plain function to the Emitter interface.
type EmitterFunc func(models.Event)

func (f EmitterFunc) Emit(e models.Event) { f(e) }

// ChanEmitter buffers events on a channel for passive consumers. When the
// buffer is full events are dropped rather than blocking the pipeline.
type ChanEmitter struct {
	ch chan models.Event
}

func NewChanEmitter(size int) *ChanEmitter {
	if size <= 0 {
		size = 64
	}
	return &ChanEmitter{ch: make(chan models.Event, size)}
}

func (e *ChanEmitter) Emit(ev models.Event) {
	select {
	case e.ch <- ev:
	default:
		// Slow consumer; drop.
	}
}

func (e *ChanEmitter) Events() <-chan models.Event { return e.ch }

// Close ends the stream. Call only after the producing run has finished.
func (e *ChanEmitter) Close() { close(e.ch) }
