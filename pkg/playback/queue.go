// Package playback serializes spoken output through a single worker.
//
// Sentences are queued as soon as they are segmented; the worker speaks them
// one at a time in enqueue order. Barrier lets a turn wait until everything
// it queued has been spoken before it returns to idle.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned when enqueuing on a queue that has been closed.
var ErrClosed = errors.New("playback: queue closed")

// Speaker plays one piece of text and returns when playback is finished
// or has failed.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string) error

// Speak calls f.
func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// task is one queued item. The shutdown sentinel has stop set.
type task struct {
	seq  uint64
	text string
	stop bool
}

// Stats reports queue counters.
type Stats struct {
	Enqueued uint64 `json:"enqueued"`
	Done     uint64 `json:"done"`
	Failed   uint64 `json:"failed"`
	Dropped  uint64 `json:"dropped"`
	Pending  int    `json:"pending"`
}

// Queue is an unbounded FIFO of speech tasks with one consumer.
type Queue struct {
	speaker Speaker
	logger  *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	items    []task
	seq      uint64 // last sequence number handed out
	inflight uint64 // seq being spoken, 0 when idle
	done     uint64
	failed   uint64
	dropped  uint64
	closed   bool
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
}

// New creates a queue that plays through speaker. Call Start before use.
func New(speaker Speaker, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		speaker: speaker,
		logger:  logger.With("component", "playback.queue"),
		ctx:     ctx,
		cancel:  cancel,
		exited:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker. Calling it more than once has no effect.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.work()
}

// Enqueue appends text for playback. It never blocks on playback.
func (q *Queue) Enqueue(text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.seq++
	q.items = append(q.items, task{seq: q.seq, text: text})
	q.cond.Broadcast()
	return nil
}

// Barrier blocks until every task enqueued before the call has been
// processed, or ctx is done.
func (q *Queue) Barrier(ctx context.Context) error {
	q.mu.Lock()
	target := q.seq
	if q.settled(target) {
		q.mu.Unlock()
		return nil
	}

	// Wake the waiter if ctx ends first.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	for !q.settled(target) {
		if err := ctx.Err(); err != nil {
			q.mu.Unlock()
			return err
		}
		q.cond.Wait()
	}
	q.mu.Unlock()
	return nil
}

// Discard drops every task that has not started playing. The task in
// flight, if any, finishes normally. A pending Barrier is released once
// that task is done.
func (q *Queue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	n := 0
	for _, t := range q.items {
		if t.stop {
			kept = append(kept, t)
			continue
		}
		n++
	}
	q.items = kept
	q.dropped += uint64(n)
	q.cond.Broadcast()
	if n > 0 {
		q.logger.Info("discarded queued speech", "count", n)
	}
	return n
}

// Close queues the shutdown sentinel and waits for the worker to drain
// everything queued before it. Further Enqueue calls fail with ErrClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.exited
		return nil
	}
	q.closed = true
	started := q.started
	q.items = append(q.items, task{stop: true})
	q.cond.Broadcast()
	q.mu.Unlock()

	if started {
		<-q.exited
	} else {
		close(q.exited)
	}
	q.cancel()
	return nil
}

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := 0
	for _, t := range q.items {
		if !t.stop {
			pending++
		}
	}
	return Stats{
		Enqueued: q.seq,
		Done:     q.done,
		Failed:   q.failed,
		Dropped:  q.dropped,
		Pending:  pending,
	}
}

// settled reports whether every task with seq <= target has left the queue
// and is not playing. Items are kept in seq order with the sentinel last.
func (q *Queue) settled(target uint64) bool {
	if q.inflight != 0 && q.inflight <= target {
		return false
	}
	if len(q.items) > 0 && !q.items[0].stop && q.items[0].seq <= target {
		return false
	}
	return true
}

func (q *Queue) next() task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	t := q.items[0]
	q.items[0] = task{}
	q.items = q.items[1:]
	q.inflight = t.seq
	return t
}

func (q *Queue) finish(err error) {
	q.mu.Lock()
	q.inflight = 0
	q.done++
	if err != nil {
		q.failed++
	}
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue) work() {
	defer close(q.exited)
	for {
		t := q.next()
		if t.stop {
			q.logger.Debug("playback worker stopped")
			return
		}

		err := q.speak(t.text)
		if err != nil {
			q.logger.Warn("speech failed", "error", err, "seq", t.seq)
		}
		q.finish(err)
	}
}

// speak isolates the worker from a panicking Speaker.
func (q *Queue) speak(text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("playback: speaker panicked")
			q.logger.Error("speaker panic", "panic", r)
		}
	}()
	return q.speaker.Speak(q.ctx, text)
}
