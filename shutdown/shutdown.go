// Package shutdown runs registered cleanup hooks in priority order when the
// process is asked to stop: ingress first so no new requests arrive, the
// image cache database last.
package shutdown

import (
	"container/heap"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flanksource/commons/logger"
)

const (
	PriorityIngress  = 0
	PriorityDefault  = 100
	PriorityWorkers  = 200
	PriorityDatabase = 300
)

type Hook struct {
	label    string
	priority int
	fn       func()
	seq      int // registration order
	index    int // for heap interface
}

type HookHeap []*Hook

func (h HookHeap) Len() int { return len(h) }

// Less orders by priority, then by registration order
func (h HookHeap) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].seq < h[j].seq
	}
	return h[i].priority < h[j].priority
}

func (h HookHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *HookHeap) Push(x interface{}) {
	n := len(*h)
	item := x.(*Hook)
	item.index = n
	*h = append(*h, item)
}

func (h *HookHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

var (
	hooks    HookHeap
	hooksMux sync.Mutex
	once     sync.Once
	seq      int
)

// AddHook registers a shutdown hook with default priority
func AddHook(label string, fn func()) {
	AddHookWithPriority(label, PriorityDefault, fn)
}

// AddHookWithPriority registers a shutdown hook, lower priorities run first
func AddHookWithPriority(label string, priority int, fn func()) {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	seq++
	heap.Push(&hooks, &Hook{label: label, priority: priority, fn: fn, seq: seq})
}

// Pending returns the number of hooks that have not run yet
func Pending() int {
	hooksMux.Lock()
	defer hooksMux.Unlock()
	return hooks.Len()
}

// Shutdown executes all registered hooks in priority order. A panicking
// hook is logged and does not stop the others.
func Shutdown() {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	if len(hooks) == 0 {
		return
	}

	logger.Infof("Executing %d shutdown hooks", len(hooks))

	for hooks.Len() > 0 {
		hook := heap.Pop(&hooks).(*Hook)
		logger.Debugf("Executing shutdown hook: %s (priority=%d)", hook.label, hook.priority)

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic in shutdown hook %s: %v", hook.label, r)
				}
			}()
			hook.fn()
		}()
	}

	logger.Infof("All shutdown hooks executed")
}

// WaitForSignal blocks until SIGINT or SIGTERM, runs the hooks and exits.
// A second signal exits immediately.
func WaitForSignal() {
	once.Do(func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		sig := <-sigChan
		logger.Infof("Received %s, shutting down (send again to force exit)", sig)

		go func() {
			<-sigChan
			logger.Warnf("Forced exit")
			os.Exit(1)
		}()

		Shutdown()
		os.Exit(0)
	})
}

// RunAndWait runs fn and then waits for a shutdown signal
func RunAndWait(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	WaitForSignal()
	return nil
}
