package sequencer

import "container/heap"

// Task is a scheduled callback. frame is the frame it was scheduled for.
type Task func(frame int64)

// Token identifies a scheduled task and cancels it.
type Token struct {
	frame     int64
	seq       uint64
	task      Task
	cancelled bool
	done      bool
}

// Cancel prevents the task from running. Cancelling twice, or cancelling a
// task that already ran, is a no-op. It reports whether this call cancelled it.
func (t *Token) Cancel() bool {
	if t == nil || t.cancelled || t.done {
		return false
	}
	t.cancelled = true
	return true
}

// Frame returns the frame the task was scheduled for.
func (t *Token) Frame() int64 { return t.frame }

// Scheduler runs tasks at absolute frame positions.
type Scheduler interface {
	ScheduleAt(frame int64, task Task) *Token
}

// FrameScheduler is a Scheduler driven by an audio render loop: the loop calls
// RunDue with the frame it is about to render. It is not safe for concurrent
// use; callers serialise access the same way they serialise rendering.
type FrameScheduler struct {
	queue taskQueue
	seq   uint64
}

func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

func (s *FrameScheduler) ScheduleAt(frame int64, task Task) *Token {
	s.seq++
	tok := &Token{frame: frame, seq: s.seq, task: task}
	heap.Push(&s.queue, tok)
	return tok
}

// RunDue runs every live task scheduled at or before now, in frame order.
// Tasks scheduled by running tasks are honoured within the same call.
func (s *FrameScheduler) RunDue(now int64) int {
	ran := 0
	for len(s.queue) > 0 && s.queue[0].frame <= now {
		tok := heap.Pop(&s.queue).(*Token)
		if tok.cancelled {
			continue
		}
		tok.done = true
		tok.task(tok.frame)
		ran++
	}
	return ran
}

// Next returns the frame of the earliest live task.
func (s *FrameScheduler) Next() (int64, bool) {
	for len(s.queue) > 0 {
		if s.queue[0].cancelled {
			heap.Pop(&s.queue)
			continue
		}
		return s.queue[0].frame, true
	}
	return 0, false
}

// Pending returns the number of queued tasks, cancelled ones included.
func (s *FrameScheduler) Pending() int { return len(s.queue) }

type taskQueue []*Token

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].frame != q[j].frame {
		return q[i].frame < q[j].frame
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*Token)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	tok := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return tok
}
