package goreadable

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool runs extractions across a fixed number of Readers. Each Reader
// handles one call at a time, so the pool size caps extraction parallelism.
// A Reader that reports an engine fault is discarded and its slot refilled
// with a fresh instance; input-level failures return the Reader to the pool
// untouched.
type Pool struct {
	mu     sync.Mutex
	free   chan *Reader
	size   int
	alive  int
	closed bool
}

// NewPool creates a pool of size Readers. Sizes below one are raised to
// one. Creation fails if any Reader cannot be initialized.
func NewPool(size int) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{free: make(chan *Reader, size), size: size}
	for i := 0; i < size; i++ {
		r, err := New()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("create pool reader %d of %d: %w", i+1, size, err)
		}
		p.free <- r
		p.alive++
	}
	return p, nil
}

// Size reports the configured number of slots.
func (p *Pool) Size() int { return p.size }

// Parse borrows a Reader, runs one extraction on it and returns it to the
// pool. Blocks while all Readers are busy, honoring ctx while waiting.
func (p *Pool) Parse(ctx context.Context, html, baseURL string, opts *Options) (*Article, error) {
	r, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	article, perr := r.ParseContext(ctx, html, baseURL, opts)
	if perr != nil && errors.Is(perr, ErrEngine) {
		p.discard(r)
	} else {
		p.release(r)
	}
	return article, perr
}

func (p *Pool) acquire(ctx context.Context) (*Reader, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, &Error{Kind: KindEngine, Message: "pool is closed"}
	case p.alive == 0:
		p.mu.Unlock()
		return nil, &Error{Kind: KindEngine, Message: "pool has no usable readers left"}
	}
	p.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case r := <-p.free:
		if r == nil {
			return nil, &Error{Kind: KindEngine, Message: "pool is closed"}
		}
		return r, nil
	case <-ctx.Done():
		return nil, &Error{Kind: KindEngine, Message: "acquire reader", Err: ctx.Err()}
	}
}

func (p *Pool) release(r *Reader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		r.Close()
		return
	}
	p.free <- r
}

// discard drops a faulted Reader and refills the slot with a fresh one.
// When the replacement cannot be created the pool shrinks; once no readers
// remain, further acquires report an engine error instead of blocking.
func (p *Pool) discard(r *Reader) {
	r.Close()
	replacement, err := New()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.alive--
		return
	}
	if p.closed {
		replacement.Close()
		return
	}
	p.free <- replacement
}

// Close shuts down the pool and every idle Reader. Readers checked out at
// close time are closed as they come back. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.free)
	p.mu.Unlock()

	for r := range p.free {
		r.Close()
	}
}
