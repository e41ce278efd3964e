package memory

import (
	"container/list"

	"github.com/qrave1/PairSpeak/internal/application/metric"
)

// WaitingQueue - FIFO очереди ожидания по режимам. Соединение стоит не более чем в одной очереди.
type WaitingQueue interface {
	// Enqueue appends connID to the tail of mode and returns its 1-based position.
	// A connection already queued anywhere keeps its place and gets ok=false.
	Enqueue(mode, connID string) (position int, ok bool)

	PopFront(mode string) (string, bool)
	Remove(connID string) bool
	ModeOf(connID string) (string, bool)
	Len(mode string) int
	Total() int
}

type waitingEntry struct {
	mode string
	elem *list.Element
}

type waitingQueue struct {
	queues map[string]*list.List
	index  map[string]waitingEntry
}

func NewWaitingQueue() WaitingQueue {
	return &waitingQueue{
		queues: make(map[string]*list.List),
		index:  make(map[string]waitingEntry),
	}
}

func (q *waitingQueue) Enqueue(mode, connID string) (int, bool) {
	if _, queued := q.index[connID]; queued {
		return 0, false
	}

	l, ok := q.queues[mode]
	if !ok {
		l = list.New()
		q.queues[mode] = l
	}

	q.index[connID] = waitingEntry{mode: mode, elem: l.PushBack(connID)}

	metric.SetWaitingQueueDepth(mode, l.Len())

	return l.Len(), true
}

func (q *waitingQueue) PopFront(mode string) (string, bool) {
	l, ok := q.queues[mode]
	if !ok || l.Len() == 0 {
		return "", false
	}

	connID := l.Remove(l.Front()).(string)
	delete(q.index, connID)

	metric.SetWaitingQueueDepth(mode, l.Len())

	return connID, true
}

func (q *waitingQueue) Remove(connID string) bool {
	entry, ok := q.index[connID]
	if !ok {
		return false
	}

	l := q.queues[entry.mode]
	l.Remove(entry.elem)
	delete(q.index, connID)

	metric.SetWaitingQueueDepth(entry.mode, l.Len())

	return true
}

func (q *waitingQueue) ModeOf(connID string) (string, bool) {
	entry, ok := q.index[connID]
	return entry.mode, ok
}

func (q *waitingQueue) Len(mode string) int {
	l, ok := q.queues[mode]
	if !ok {
		return 0
	}

	return l.Len()
}

func (q *waitingQueue) Total() int {
	return len(q.index)
}
