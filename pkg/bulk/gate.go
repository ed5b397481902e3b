/*
 * Copyright 2025 SREDiag Authors
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
	"context"
	"sync"
)

// Gate gives another data source priority over a producer. While the gate is
// held the producer writes nothing to the region; Write keeps queueing.
type Gate interface {
	// Wait blocks until the gate is open or ctx is done.
	Wait(ctx context.Context) error
}

// ManualGate is a Gate with manual-reset semantics: it stays open until Hold and
// stays held until Release.
type ManualGate struct {
	mu   sync.Mutex
	open chan struct{}
	held bool
}

// NewManualGate returns a gate, initially open or held.
func NewManualGate(open bool) *ManualGate {
	g := &ManualGate{open: make(chan struct{})}
	if open {
		close(g.open)
	} else {
		g.held = true
	}
	return g
}

// Hold closes the gate.
func (g *ManualGate) Hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		g.open = make(chan struct{})
		g.held = true
	}
}

// Release opens the gate and wakes every waiter.
func (g *ManualGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		close(g.open)
		g.held = false
	}
}

// IsOpen reports whether the gate is currently open.
func (g *ManualGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.held
}

// Wait implements Gate.
func (g *ManualGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()
	select {
	case <-open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
