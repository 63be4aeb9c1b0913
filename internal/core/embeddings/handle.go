package embeddings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
)

// Model status strings reported to the host.
const (
	StatusLoaded    = "loaded"
	StatusNotLoaded = "not loaded"
)

// Factory builds the encoder on first use.
type Factory func(ctx context.Context) (Encoder, error)

// Handle is a process-wide encoder constructed lazily exactly once.
// Concurrent first callers block on the same initialization.
type Handle struct {
	once    sync.Once
	factory Factory
	encoder Encoder
	err     error
	loaded  atomic.Bool
}

// NewHandle wraps factory in a lazily initialized handle.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// NewStaticHandle returns a handle that is already initialized with enc.
func NewStaticHandle(enc Encoder) *Handle {
	h := &Handle{encoder: enc}
	h.once.Do(func() {})
	h.loaded.Store(true)

	return h
}

// Encoder returns the shared encoder, constructing it on the first call. A failed or
// panicking construction is remembered and reported to every later caller.
func (h *Handle) Encoder(ctx context.Context) (Encoder, error) {
	h.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				h.encoder, h.err = nil, fmt.Errorf("%w: encoder factory panicked: %v", scorerrors.ErrEncoderUnavailable, r)
			}

			if h.err == nil && h.encoder == nil {
				h.err = fmt.Errorf("%w: encoder factory returned nil", scorerrors.ErrEncoderUnavailable)
			}

			h.loaded.Store(h.err == nil)
		}()

		h.encoder, h.err = h.factory(ctx)
	})

	return h.encoder, h.err
}

// Encode implements Encoder by delegating to the lazily built encoder.
func (h *Handle) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	enc, err := h.Encoder(ctx)
	if err != nil {
		return nil, err
	}

	return enc.Encode(ctx, texts)
}

// Release frees accelerator caches if the encoder is loaded and supports it.
// It never unloads the encoder itself.
func (h *Handle) Release(ctx context.Context) error {
	if !h.loaded.Load() {
		return nil
	}

	if r, ok := h.encoder.(Releaser); ok {
		return r.Release(ctx)
	}

	return nil
}

// Status reports StatusLoaded once the encoder has been built successfully.
func (h *Handle) Status() string {
	if h.loaded.Load() {
		return StatusLoaded
	}

	return StatusNotLoaded
}
