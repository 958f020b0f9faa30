package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a deterministic Clock for tests. Time only advances when
// Advance is called; scheduled callbacks whose deadline has been
// reached fire synchronously on the calling goroutine, in deadline
// order.
type Virtual struct {
	mu   sync.Mutex
	now  time.Time
	seq  int
	heap timerHeap
}

// NewVirtual returns a Virtual clock starting at the given time.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

type virtualTimer struct {
	deadline time.Time
	seq      int
	period   time.Duration // zero for one-shot
	f        func()
	cancelled bool
	index    int
}

type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) After(d time.Duration, f func()) Cancel {
	v.mu.Lock()
	t := &virtualTimer{deadline: v.now.Add(d), seq: v.seq, f: f}
	v.seq++
	heap.Push(&v.heap, t)
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		t.cancelled = true
		v.mu.Unlock()
	}
}

func (v *Virtual) Every(d time.Duration, f func()) Cancel {
	v.mu.Lock()
	t := &virtualTimer{deadline: v.now.Add(d), seq: v.seq, period: d, f: f}
	v.seq++
	heap.Push(&v.heap, t)
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		t.cancelled = true
		v.mu.Unlock()
	}
}

// Advance moves simulated time forward by d, firing every callback
// whose deadline falls at or before the new time, in deadline order.
// Periodic callbacks are rescheduled for their next period.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	for {
		if v.heap.Len() == 0 {
			break
		}
		next := v.heap[0]
		if next.deadline.After(target) {
			break
		}
		heap.Pop(&v.heap)
		if next.cancelled {
			continue
		}
		v.now = next.deadline
		fn := next.f
		if next.period > 0 {
			next.deadline = next.deadline.Add(next.period)
			next.seq = v.seq
			v.seq++
			heap.Push(&v.heap, next)
		}
		v.mu.Unlock()
		fn()
		v.mu.Lock()
	}
	if target.After(v.now) {
		v.now = target
	}
	v.mu.Unlock()
}
