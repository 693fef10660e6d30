package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/familyalbum/faces/internal/domain"
)

var errLoaderClosed = errors.New("detector loader closed")

// Loader owns the process-wide detector handle. The model is loaded lazily
// on first use, concurrent callers share a single load, and a failed load
// may be retried. Close unloads the model once every acquired Handle has
// been released.
type Loader struct {
	model  Model
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.Mutex
	loaded   bool
	closed   bool
	unloaded bool
	refs     int
}

func NewLoader(model Model, logger *slog.Logger) *Loader {
	return &Loader{
		model:  model,
		logger: logger.With(slog.String("component", "detector"), slog.String("model", model.Name())),
	}
}

func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && !l.closed
}

func (l *Loader) Dimension() int {
	return l.model.Dimension()
}

// EnsureLoaded blocks until the model is loaded or ctx is done. A caller
// giving up does not cancel the load for the others.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return domain.ErrDetectorUnavailable.WithError(errLoaderClosed)
	case l.loaded:
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan("load", func() (any, error) {
		l.logger.Info("loading detector")
		if err := l.model.Load(context.WithoutCancel(ctx)); err != nil {
			l.logger.Warn("detector load failed", slog.Any("error", err))
			return nil, err
		}

		l.mu.Lock()
		l.loaded = true
		closed := l.closed && l.refs == 0
		l.mu.Unlock()

		if closed {
			return nil, l.unload()
		}

		l.logger.Info("detector loaded", slog.Int("dimension", l.model.Dimension()))
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return domain.ErrDetectorUnavailable.WithError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.ErrDetectorUnavailable.WithError(res.Err)
		}
		return nil
	}
}

// Acquire loads the model if needed and returns a counted handle.
func (l *Loader) Acquire(ctx context.Context) (*Handle, error) {
	if err := l.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, domain.ErrDetectorUnavailable.WithError(errLoaderClosed)
	}
	l.refs++
	return &Handle{loader: l}, nil
}

// Detect runs one detection through a short-lived handle.
func (l *Loader) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	h, err := l.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	return h.Detect(ctx, image)
}

// Close marks the loader closed. The model is unloaded now if no handle is
// outstanding, otherwise by the last Release.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	unload := l.refs == 0
	l.mu.Unlock()

	if unload {
		return l.unload()
	}
	l.logger.Info("detector close deferred until handles are released")
	return nil
}

func (l *Loader) release() {
	l.mu.Lock()
	l.refs--
	unload := l.closed && l.refs == 0
	l.mu.Unlock()

	if unload {
		if err := l.unload(); err != nil {
			l.logger.Error("detector unload failed", slog.Any("error", err))
		}
	}
}

func (l *Loader) unload() error {
	l.mu.Lock()
	if l.unloaded || !l.loaded {
		l.unloaded = true
		l.mu.Unlock()
		return nil
	}
	l.unloaded = true
	l.loaded = false
	l.mu.Unlock()

	l.logger.Info("unloading detector")
	return l.model.Close()
}

// Handle is a reference to the loaded model. Release must be called once.
type Handle struct {
	loader *Loader
	once   sync.Once
}

func (h *Handle) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	return h.loader.model.Detect(ctx, image)
}

func (h *Handle) Release() {
	h.once.Do(h.loader.release)
}

var _ FaceDetector = (*Loader)(nil)
