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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualGate(t *testing.T) {
	g := NewManualGate(true)
	assert.True(t, g.IsOpen())
	assert.Equal(t, nil, g.Wait(context.Background()))

	g.Hold()
	g.Hold()
	assert.False(t, g.IsOpen())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, g.Wait(ctx))

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { done <- g.Wait(context.Background()) }()
	}
	time.Sleep(10 * time.Millisecond)
	g.Release()
	g.Release()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			assert.Equal(t, nil, err)
		case <-time.After(time.Second):
			t.Fatal("release did not wake every waiter")
		}
	}
	assert.True(t, NewManualGate(true).IsOpen())
	assert.False(t, NewManualGate(false).IsOpen())
}
