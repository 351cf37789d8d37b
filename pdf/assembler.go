package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrAssemblerClosed is returned when writing to or completing an assembler
// that has already completed
var ErrAssemblerClosed = errors.New("assembler already completed")

// Assembler collects the chunks a renderer writes into one buffer. The
// renderer signals the end of the document with Close or an internal error
// with Fail; Wait returns once either happened. An assembler serves exactly
// one document.
type Assembler struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	chunks int
	err    error
	done   chan struct{}
	closed bool
}

// NewAssembler returns an empty assembler
func NewAssembler() *Assembler {
	return &Assembler{done: make(chan struct{})}
}

// Write appends a chunk in arrival order
func (a *Assembler) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, ErrAssemblerClosed
	}
	a.chunks++
	return a.buf.Write(p)
}

// Close marks the document as complete
func (a *Assembler) Close() error {
	return a.complete(nil)
}

// Fail marks the document as failed, Wait will return err
func (a *Assembler) Fail(err error) error {
	if err == nil {
		err = errors.New("renderer failed")
	}
	return a.complete(err)
}

func (a *Assembler) complete(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAssemblerClosed
	}
	a.closed = true
	a.err = err
	close(a.done)
	return nil
}

// Wait blocks until the document completes and returns its bytes. The
// buffer is never returned when the renderer failed.
func (a *Assembler) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for PDF output: %w", ctx.Err())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return nil, fmt.Errorf("renderer error: %w", a.err)
	}
	if a.buf.Len() == 0 {
		return nil, errors.New("renderer produced no output")
	}
	return a.buf.Bytes(), nil
}

// Chunks returns the number of writes received so far
func (a *Assembler) Chunks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chunks
}

// Len returns the number of bytes received so far
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Len()
}

// Render closes r into a fresh assembler from a separate goroutine and waits
// for the result, so a cancelled ctx returns without waiting for the
// renderer to finish.
func Render(ctx context.Context, r Renderer) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}
	asm := NewAssembler()
	go func() {
		if err := r.Close(asm); err != nil {
			_ = asm.Fail(err)
			return
		}
		_ = asm.Close()
	}()
	return asm.Wait(ctx)
}
