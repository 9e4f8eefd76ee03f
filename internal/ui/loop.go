package ui

import (
	"context"
	"sync"
)

// Loop runs tasks one at a time on a single goroutine. Everything that touches
// a page's document runs on its loop; blocking work is started with Async and
// only its continuation comes back onto the loop.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	busy   int // queued tasks + in-flight async work
	idle   chan struct{}
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop starts a loop. Close it when the page is discarded.
func NewLoop() *Loop {
	l := &Loop{
		idle: make(chan struct{}),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			continue
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
		l.release()
	}
}

// Post queues task. It reports false once the loop is closed.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.busy++
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs task on the loop and waits for it to finish. It must not be called
// from a task already running on the loop.
func (l *Loop) Do(task func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		task()
	}) {
		return false
	}
	<-finished
	return true
}

// Async runs work on its own goroutine and posts the continuation it returns
// back onto the loop. A nil continuation is skipped.
func (l *Loop) Async(work func() func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.busy++
	l.mu.Unlock()

	go func() {
		defer l.release()
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
	return true
}

// Wait blocks until no task is queued and no async work is in flight.
func (l *Loop) Wait(ctx context.Context) error {
	l.mu.Lock()
	if l.busy == 0 {
		l.mu.Unlock()
		return nil
	}
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, lets already queued tasks finish and returns
// once the loop goroutine has exited. In-flight async continuations are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

func (l *Loop) release() {
	l.mu.Lock()
	l.busy--
	if l.busy == 0 {
		close(l.idle)
		l.idle = make(chan struct{})
	}
	l.mu.Unlock()
}
