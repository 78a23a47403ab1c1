package goreadable

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestPoolParallelParses(t *testing.T) {
	p, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if p.Size() != 2 {
		t.Fatalf("Size = %d, want 2", p.Size())
	}

	const calls = 12
	errCh := make(chan error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := p.Parse(context.Background(), simpleArticleHTML, "", nil)
			if err == nil && a.Title != "T" {
				err = errors.New("wrong title " + a.Title)
			}
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("pooled parse failed: %v", err)
		}
	}
}

func TestPoolSurvivesInputFailures(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if _, err := p.Parse(context.Background(), "<html", "", nil); !errors.Is(err, ErrHTMLParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	a, err := p.Parse(context.Background(), simpleArticleHTML, "", nil)
	if err != nil {
		t.Fatalf("pool unusable after input failure: %v", err)
	}
	if a.Title != "T" {
		t.Fatalf("title = %q", a.Title)
	}
}

func TestPoolReplacesFaultedReader(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	// A canceled context fails either while waiting for a reader or inside
	// the engine call. Both surface as engine-class errors; the in-call
	// variant also discards and replaces the reader. The pool must stay
	// usable in both cases.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, perr := p.Parse(ctx, simpleArticleHTML, "", nil)
	if !errors.Is(perr, ErrEngine) {
		t.Fatalf("expected engine error, got %v", perr)
	}

	a, err := p.Parse(context.Background(), simpleArticleHTML, "", nil)
	if err != nil {
		t.Fatalf("pool did not recover after engine fault: %v", err)
	}
	if a.Title != "T" {
		t.Fatalf("title = %q after replacement", a.Title)
	}
}

func TestPoolClose(t *testing.T) {
	p, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	p.Close()
	p.Close() // idempotent

	if _, err := p.Parse(context.Background(), simpleArticleHTML, "", nil); !errors.Is(err, ErrEngine) {
		t.Fatalf("expected engine error from closed pool, got %v", err)
	}
}

func TestPoolMinimumSize(t *testing.T) {
	p, err := NewPool(0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()
	if p.Size() != 1 {
		t.Fatalf("Size = %d, want clamp to 1", p.Size())
	}
	if _, err := p.Parse(context.Background(), simpleArticleHTML, "", nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}
