package event

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type (
	// Task is a unit of side-effect work queued off the hot update path,
	// notice deletions, DM sends, stat bumps.
	Task struct {
		Kind string
		Run  func(ctx context.Context) error
	}

	Dispatcher struct {
		queue       chan Task
		workers     int
		taskTimeout time.Duration

		group  *errgroup.Group
		cancel context.CancelFunc
	}
)

func NewDispatcher(queueSize, workers int, taskTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		queue:       make(chan Task, queueSize),
		workers:     workers,
		taskTimeout: taskTimeout,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	d.group = group

	for i := 0; i < d.workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case task, ok := <-d.queue:
					if !ok {
						return nil
					}
					d.run(groupCtx, task)
				}
			}
		})
	}
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue never blocks the update loop. A full queue drops the task with
// a warning, every task is best-effort by contract.
func (d *Dispatcher) Enqueue(task Task) {
	select {
	case d.queue <- task:
	default:
		log.WithField("kind", task.Kind).Warn("task queue full, dropping task")
	}
}

func (d *Dispatcher) run(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithTimeout(ctx, d.taskTimeout)
	defer cancel()

	if err := task.Run(taskCtx); err != nil {
		log.WithField("kind", task.Kind).WithError(err).Error("task failed")
	}
}
