// Package queue hands completed frames from the network goroutine to the
// recovery goroutine.
//
// The queue is unbounded: Push never blocks and never drops, so backpressure
// is whatever pace the consumer keeps. Each Push signals a one slot channel,
// which wakes a consumer blocked in Wait without any polling.
package queue

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"github.com/opd-ai/remoteiq/frame"
	"github.com/sirupsen/logrus"
)

// TransferQueue is a FIFO of frames safe for one producer and one consumer.
type TransferQueue struct {
	mu     sync.Mutex
	frames deque.Deque[*frame.Frame]
	notify chan struct{}
	pushed uint64
}

// NewTransferQueue creates an empty queue.
func NewTransferQueue() *TransferQueue {
	return &TransferQueue{
		notify: make(chan struct{}, 1),
	}
}

// Push appends a frame. Ownership of f passes to the queue.
func (q *TransferQueue) Push(f *frame.Frame) {
	if f == nil {
		return
	}

	q.mu.Lock()
	q.frames.PushBack(f)
	q.pushed++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes the oldest frame without waiting.
func (q *TransferQueue) Pop() (*frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.frames.Len() == 0 {
		return nil, false
	}
	return q.frames.PopFront(), true
}

// Wait returns the oldest frame, blocking until one is pushed or ctx ends.
func (q *TransferQueue) Wait(ctx context.Context) (*frame.Frame, error) {
	for {
		if f, ok := q.Pop(); ok {
			return f, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of queued frames.
func (q *TransferQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frames.Len()
}

// Pushed returns the number of frames pushed since creation.
func (q *TransferQueue) Pushed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Clear drops every queued frame, handing each to recycle when it is not nil,
// and returns how many were dropped.
func (q *TransferQueue) Clear(recycle func(*frame.Frame)) int {
	q.mu.Lock()
	dropped := make([]*frame.Frame, 0, q.frames.Len())
	for q.frames.Len() > 0 {
		dropped = append(dropped, q.frames.PopFront())
	}
	q.mu.Unlock()

	if recycle != nil {
		for _, f := range dropped {
			recycle(f)
		}
	}

	if len(dropped) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "TransferQueue.Clear",
			"dropped":  len(dropped),
		}).Debug("Transfer queue cleared")
	}

	return len(dropped)
}
