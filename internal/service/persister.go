package service

import (
	"context"
	"errors"
	"sync"
)

var errPersisterStopped = errors.New("persister stopped before pending writes completed")

// persister runs collection writes on a single goroutine.
//
// Requests coalesce: any number of requests made while a write is in flight
// produce one follow-up write, and every write snapshots the latest state.
// The file therefore always converges on the most recent mutation.
type persister struct {
	write func()

	kick    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	mu        sync.Mutex
	requested uint64
	completed uint64
	progress  chan struct{} // closed and replaced after every write
	closed    bool
}

func newPersister(write func()) *persister {
	p := &persister{
		write:    write,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		progress: make(chan struct{}),
	}
	go p.run()
	return p
}

// request schedules a write and returns immediately.
// Returns false once the persister has been closed.
func (p *persister) request() bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.requested++
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
		// A wake-up is already queued; it will pick this request up.
	}
	return true
}

func (p *persister) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.kick:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	p.mu.Lock()
	target := p.requested
	upToDate := target == p.completed
	p.mu.Unlock()
	if upToDate {
		return
	}

	p.write()

	p.mu.Lock()
	p.completed = target
	close(p.progress)
	p.progress = make(chan struct{})
	p.mu.Unlock()
}

// flush blocks until every request made before the call has been written.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.requested
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.completed >= target {
			p.mu.Unlock()
			return nil
		}
		progress := p.progress
		p.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopped:
			p.mu.Lock()
			done := p.completed >= target
			p.mu.Unlock()
			if done {
				return nil
			}
			return errPersisterStopped
		}
	}
}

// close performs any outstanding write and stops the goroutine.
func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.stopped
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.stopped
}
