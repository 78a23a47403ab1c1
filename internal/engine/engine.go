// Package engine manages isolated JavaScript execution contexts for the
// embedded extraction bundle. Each Engine owns one goja runtime with the
// bundle evaluated and the entry point resolved. Creating an Engine is
// comparatively expensive; invoking it is cheap, so callers are expected to
// hold on to instances and reuse them.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/hyperifyio/goreadable/internal/bundle"
)

// Engine is a single execution context. It is not safe for concurrent use:
// callers must serialize Invoke calls or use one Engine per goroutine.
type Engine struct {
	vm    *goja.Runtime
	entry goja.Callable
}

// New creates a fresh execution context and evaluates the embedded bundle
// in it. Engines share the compiled program but nothing else; state leaked
// into one runtime is invisible to every other.
func New() (*Engine, error) {
	prog, err := bundle.Program()
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	if _, err := vm.RunProgram(prog); err != nil {
		return nil, fmt.Errorf("evaluate bundle: %w", err)
	}
	entry, ok := goja.AssertFunction(vm.Get(bundle.EntryPoint))
	if !ok {
		return nil, fmt.Errorf("bundle did not define callable %q", bundle.EntryPoint)
	}
	return &Engine{vm: vm, entry: entry}, nil
}

// Invoke calls the bundle entry point with one document and returns its
// exported result. Input-level failures (unparsable HTML, nothing readable)
// come back inside the result value, not as an error: every non-nil error
// from Invoke means the engine itself misbehaved or the call was interrupted
// by ctx, and the instance should be considered suspect.
func (e *Engine) Invoke(ctx context.Context, html, baseURL string, options map[string]any) (result any, err error) {
	if e == nil || e.vm == nil {
		return nil, errors.New("engine is closed")
	}
	if ctx != nil {
		if cause := ctx.Err(); cause != nil {
			return nil, fmt.Errorf("invocation aborted: %w", cause)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()

	opts, err := e.buildOptions(options)
	if err != nil {
		return nil, err
	}
	base := goja.Null()
	if baseURL != "" {
		base = e.vm.ToValue(baseURL)
	}

	finish := e.watchdog(ctx)
	value, callErr := e.entry(goja.Undefined(), e.vm.ToValue(html), base, opts)
	interrupted := finish()
	if callErr != nil {
		var ie *goja.InterruptedError
		if interrupted || errors.As(callErr, &ie) {
			if ctx != nil && ctx.Err() != nil {
				return nil, fmt.Errorf("invocation interrupted: %w", ctx.Err())
			}
			return nil, fmt.Errorf("invocation interrupted: %w", callErr)
		}
		return nil, fmt.Errorf("entry point raised: %w", callErr)
	}
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, errors.New("entry point returned no value")
	}
	return value.Export(), nil
}

// Close releases the execution context. Further Invoke calls fail. Safe to
// call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.vm = nil
	e.entry = nil
}

// buildOptions converts host options into a guest object. Only values the
// host explicitly set are present; the bundle applies its own defaults for
// missing keys.
func (e *Engine) buildOptions(options map[string]any) (goja.Value, error) {
	if len(options) == 0 {
		return goja.Null(), nil
	}
	obj := e.vm.NewObject()
	for key, value := range options {
		var converted goja.Value
		switch tv := value.(type) {
		case []string:
			elems := make([]any, len(tv))
			for i, s := range tv {
				elems[i] = s
			}
			converted = e.vm.NewArray(elems...)
		default:
			converted = e.vm.ToValue(value)
		}
		if err := obj.Set(key, converted); err != nil {
			return nil, fmt.Errorf("set option %q: %w", key, err)
		}
	}
	return obj, nil
}

// watchdog interrupts the runtime when ctx is canceled mid-call. The
// returned function stops the watchdog, clears any pending interrupt and
// reports whether an interrupt fired.
func (e *Engine) watchdog(ctx context.Context) func() bool {
	if ctx == nil || ctx.Done() == nil {
		return func() bool { return false }
	}
	stop := make(chan struct{})
	fired := make(chan bool, 1)
	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
			fired <- true
		case <-stop:
			fired <- false
		}
	}()
	return func() bool {
		close(stop)
		didFire := <-fired
		e.vm.ClearInterrupt()
		return didFire
	}
}
