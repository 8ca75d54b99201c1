package workerpool

import (
	"sync"

	"github.com/miniftp/miniftp/ftp/common"
)

var logger = common.GetLogger("workerpool")

// Task is a deferred unit of work. A submitted task runs exactly once on one
// of the pool's workers.
type Task func()

// Pool is a fixed-size worker pool consuming a shared, unbounded task queue.
// The queue is the only state under the mutex; tasks always run outside the
// lock so a slow task never blocks other dequeues.
type Pool struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []Task
	stop  bool
	wg    sync.WaitGroup
	size  int
}

// New creates a pool with the given number of workers and starts them.
// A size below one is clamped to one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{size: size}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Submit enqueues a task and returns immediately; it never blocks on worker
// availability. Submitting after Shutdown drops the task.
func (p *Pool) Submit(task Task) {
	p.mu.Lock()
	if p.stop {
		p.mu.Unlock()
		logger.Warn().Msg("task submitted after shutdown, dropping")
		return
	}
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	p.cond.Signal()
}

// Shutdown stops the pool: workers drain the remaining queue, then exit.
// Blocks until all workers have returned. In-flight tasks are not cancelled.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.stop = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}

// worker is the main loop of each pool thread: wait until the queue is
// non-empty or the pool is stopping, claim one task or exit, run it.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.stop && len(p.queue) == 0 {
			p.cond.Wait()
		}
		if p.stop && len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}

		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(task)
	}
}

// run executes a task, containing any panic at the task boundary so a
// failing task cannot take its worker down.
func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	task()
}
