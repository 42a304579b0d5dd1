package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"packlist/internal/model"
)

// AsyncWriter applies batches on one background goroutine in submission
// order. Submit never blocks, so it can sit behind a UI event loop.
type AsyncWriter struct {
	store     Store
	log       *zap.Logger
	timeout   time.Duration
	onApplied func(model.Batch, error)

	mu     sync.Mutex
	queue  []model.Batch
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

type AsyncWriterOpts struct {
	Logger *zap.Logger
	// Timeout bounds each write; zero means 10s.
	Timeout time.Duration
	// OnApplied runs on the writer goroutine after each batch.
	OnApplied func(model.Batch, error)
}

func NewAsyncWriter(s Store, opts AsyncWriterOpts) *AsyncWriter {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &AsyncWriter{
		store:     s,
		log:       log,
		timeout:   timeout,
		onApplied: opts.OnApplied,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) Submit(b model.Batch) {
	if b.Empty() {
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("batch dropped after close", zap.Int("items", len(b.Items)))
		return
	}
	w.queue = append(w.queue, b)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

// Close stops accepting batches and waits for queued ones to be written.
func (w *AsyncWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.wake)
	w.mu.Unlock()
	<-w.done
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			if _, ok := <-w.wake; !ok {
				// Closed while idle; drain whatever raced in.
				w.mu.Lock()
				rest := w.queue
				w.queue = nil
				w.mu.Unlock()
				for _, b := range rest {
					w.apply(b)
				}
				return
			}
			continue
		}
		b := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()
		w.apply(b)
	}
}

func (w *AsyncWriter) apply(b model.Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	err := w.store.ApplyBatch(ctx, b)
	if err != nil {
		// No retry: the next store snapshot supersedes the optimistic state.
		w.log.Warn("apply batch", zap.Int("items", len(b.Items)), zap.Bool("categoryOrder", b.CategoryOrder != nil), zap.Error(err))
	}
	if w.onApplied != nil {
		w.onApplied(b, err)
	}
}
