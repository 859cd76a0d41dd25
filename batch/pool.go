package batch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"
)

var ErrPoolClosed = errors.New("batch: pool is shut down")

// worker is one pool goroutine. Its mutex is held for as long as it runs a task,
// so holding it guarantees the worker is not touching its batch.
type worker struct {
	sync.Mutex
	id int
}

type task func(w *worker)

// pool runs tasks on a fixed set of workers fed from an unbounded queue.
type pool struct {
	log *logger.L

	mu      sync.Mutex
	ready   *sync.Cond // queue gained a task or the pool closed
	idle    *sync.Cond // pending dropped to zero
	queue   []task
	pending int // queued plus running
	closed  bool

	workers []*worker
	wg      sync.WaitGroup
}

func newPool(n int, log *logger.L) *pool {
	if n < 1 {
		n = 1
	}
	p := &pool{
		log:     log,
		workers: make([]*worker, n),
	}
	p.ready = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(n)
	for i := range p.workers {
		w := &worker{id: i}
		p.workers[i] = w
		go p.run(w)
	}
	return p
}

func (p *pool) submit(t task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, t)
	p.pending++
	p.ready.Signal()
	return nil
}

// queued returns the number of tasks not yet picked up by a worker.
func (p *pool) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// quiesce blocks until every submitted task has finished.
func (p *pool) quiesce() {
	p.mu.Lock()
	for p.pending > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// shutdown stops accepting tasks, lets the workers finish the queue and waits for
// them to exit.
func (p *pool) shutdown() {
	p.mu.Lock()
	p.closed = true
	p.ready.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *pool) run(w *worker) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.ready.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.execute(w, t)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *pool) execute(w *worker, t task) {
	w.Lock()
	defer w.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("worker %d: task panic: %s", w.id, fmt.Sprint(r))
		}
	}()
	t(w)
}
