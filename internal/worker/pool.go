package worker

import (
	"context"
	"sync"

	"ondc-seller/internal/util"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of goroutines fed by a bounded queue.
// When the queue is full the task is dropped and counted, never blocked on;
// the protocol layer has already ACKed by the time work is submitted.
type Pool struct {
	name   string
	tasks  chan Task
	wg     sync.WaitGroup
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewPool creates a pool with the given number of workers and queue depth.
func NewPool(name string, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		tasks:  make(chan Task, queueSize),
		cancel: cancel,
		logger: util.GetLogger(),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}

	p.logger.Info("Worker pool started",
		zap.String("pool", name),
		zap.Int("workers", workers),
		zap.Int("queue_size", queueSize))
	return p
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task(ctx)
		}
	}
}

// Submit enqueues a task. Returns false when the queue is full.
func (p *Pool) Submit(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		util.TasksDroppedTotal.WithLabelValues(p.name).Inc()
		p.logger.Warn("Task dropped, worker queue full", zap.String("pool", p.name))
		return false
	}
}

// Shutdown stops the workers. Queued tasks that have not started are
// abandoned; running tasks observe the cancelled context.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Worker pool stopped", zap.String("pool", p.name))
}
