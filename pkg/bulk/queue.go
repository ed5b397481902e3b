/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bulk

import (
	queuepkg "github.com/Workiva/go-datastructures/queue"
)

// defaultQueueHint is only the initial allocation; the queue grows without bound.
const defaultQueueHint = 1024

// OutboundQueue is the producer's FIFO of pending payloads.
//
// Enqueue is safe for any number of goroutines and never blocks. Peek, Dequeue
// and Len are meant for the single producer pump; Len is a snapshot that other
// writers may grow at any moment.
type OutboundQueue struct {
	q     *queuepkg.Queue
	ready chan struct{}
}

// NewOutboundQueue creates an empty queue.
func NewOutboundQueue() *OutboundQueue {
	return &OutboundQueue{
		q:     queuepkg.New(defaultQueueHint),
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends p. It fails only after Dispose.
func (q *OutboundQueue) Enqueue(p []byte) error {
	if err := q.q.Put(p); err != nil {
		return ErrClosed
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Peek returns the head of the queue without removing it.
func (q *OutboundQueue) Peek() ([]byte, bool) {
	item, err := q.q.Peek()
	if err != nil {
		return nil, false
	}
	return item.([]byte), true
}

// Dequeue removes and returns the head of the queue.
func (q *OutboundQueue) Dequeue() ([]byte, bool) {
	if q.q.Empty() {
		return nil, false
	}
	// non-empty and single reader: Get does not block
	items, err := q.q.Get(1)
	if err != nil || len(items) == 0 {
		return nil, false
	}
	return items[0].([]byte), true
}

// Len returns the number of queued payloads at the time of the call.
func (q *OutboundQueue) Len() int {
	return int(q.q.Len())
}

// Ready is poked after every Enqueue. It holds at most one pending notification.
func (q *OutboundQueue) Ready() <-chan struct{} {
	return q.ready
}

// Dispose closes the queue for writers and returns what was still queued.
func (q *OutboundQueue) Dispose() [][]byte {
	items := q.q.Dispose()
	out := make([][]byte, 0, len(items))
	for _, item := range items {
		out = append(out, item.([]byte))
	}
	return out
}
