// Package queue serializes upload jobs through a single transfer
// worker: strict FIFO by submission order, one active job at a time,
// per-job callbacks that fire exactly once.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/gamepowerx/kekupload-go/internal/source"
	"github.com/gamepowerx/kekupload-go/internal/upload"
	"github.com/gamepowerx/kekupload-go/utils"
)

// ErrJobNotFound is returned by CancelJob when the id is neither the
// active job nor queued.
var ErrJobNotFound = errors.New("job not found")

// Transferer is the surface the queue needs from its worker; satisfied
// by *upload.Transfer.
type Transferer interface {
	Begin(ctx context.Context, ext, name string) error
	UploadFile(ctx context.Context, src source.Source, onProgress func(float64)) error
	Finish(ctx context.Context) (upload.Artifact, error)
	Cancel(ctx context.Context) error
}

// Job describes one queued upload. Callbacks are invoked from the
// worker goroutine: OnComplete or OnError once per run job, followed by
// OnFinally exactly once. A job cancelled while still queued never
// invokes any of them.
type Job struct {
	Source     source.Source
	Ext        string
	Name       string
	OnComplete func(upload.Artifact)
	OnError    func(error)
	OnFinally  func()
	OnProgress func(float64)
}

type Queue struct {
	transfer Transferer

	mu      sync.Mutex
	nextID  int64
	order   []int64
	pending map[int64]*Job
	active  int64 // 0 when no job is running

	wake   chan struct{}
	done   chan struct{}
	closed sync.WaitGroup
}

func New(transfer Transferer) *Queue {
	q := &Queue{
		transfer: transfer,
		pending:  make(map[int64]*Job),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	q.closed.Add(1)
	go q.worker()
	return q
}

// AddJob appends a job to the queue and returns its id immediately.
func (q *Queue) AddJob(job Job) int64 {
	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.pending[id] = &job
	q.order = append(q.order, id)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return id
}

// CancelJob cancels the job with the given id. For the active job this
// delegates to the transfer's cooperative cancellation and blocks until
// the abort is observed; a still-queued job is removed silently and its
// callbacks never fire.
func (q *Queue) CancelJob(ctx context.Context, id int64) error {
	q.mu.Lock()
	if q.active == id && id != 0 {
		q.mu.Unlock()
		return q.transfer.Cancel(ctx)
	}
	if _, ok := q.pending[id]; ok {
		delete(q.pending, id)
		for i, queued := range q.order {
			if queued == id {
				q.order = append(q.order[:i], q.order[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()
	return ErrJobNotFound
}

// Active returns the id of the currently running job, 0 when idle.
func (q *Queue) Active() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Close stops the worker after the current job, if any, completes.
// Jobs still queued at that point are dropped without callbacks.
func (q *Queue) Close() {
	close(q.done)
	q.closed.Wait()
}

func (q *Queue) worker() {
	defer q.closed.Done()
	for {
		select {
		case <-q.done:
			return
		case <-q.wake:
		}
		for {
			select {
			case <-q.done:
				return
			default:
			}
			id, job, ok := q.next()
			if !ok {
				break
			}
			q.run(id, job)
		}
	}
}

// next pops the head of the FIFO and marks it active.
func (q *Queue) next() (int64, *Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.order) > 0 {
		id := q.order[0]
		q.order = q.order[1:]
		job, ok := q.pending[id]
		if !ok {
			continue
		}
		delete(q.pending, id)
		q.active = id
		return id, job, true
	}
	return 0, nil, false
}

func (q *Queue) run(id int64, job *Job) {
	log := utils.GetLogger("queue")
	defer func() {
		q.mu.Lock()
		q.active = 0
		q.mu.Unlock()
	}()
	ctx := context.Background()
	artifact, err := q.process(ctx, job)
	if err != nil {
		log.Debug().Err(err).Int64("jobId", id).Msg("Job failed")
		if job.OnError != nil {
			job.OnError(err)
		}
	} else {
		log.Debug().Int64("jobId", id).Str("artifact", artifact.ID).Msg("Job complete")
		if job.OnComplete != nil {
			job.OnComplete(artifact)
		}
	}
	if job.OnFinally != nil {
		job.OnFinally()
	}
}

func (q *Queue) process(ctx context.Context, job *Job) (upload.Artifact, error) {
	if err := q.transfer.Begin(ctx, job.Ext, job.Name); err != nil {
		return upload.Artifact{}, err
	}
	if err := q.transfer.UploadFile(ctx, job.Source, job.OnProgress); err != nil {
		return upload.Artifact{}, err
	}
	return q.transfer.Finish(ctx)
}
