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
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/shm-bulk/pkg/shm"
)

type role string

const (
	roleProducer role = "producer"
	roleConsumer role = "consumer"

	retryInitialInterval = 10 * time.Millisecond
)

// channel is the part producer and consumer share: one region, one signal pair
// and one pump goroutine whose exit releases both.
type channel struct {
	name    string
	role    role
	conf    *Config
	region  *shm.Region
	signals *shm.SignalPair
	metrics *channelMetrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	// written by the pump before done is closed
	closeErr error

	consecutiveErrors atomic.Int64
	lastErr           atomic.Value
}

type errBox struct{ err error }

func openChannel(name string, r role, conf *Config) (*channel, error) {
	conf = withDefaults(conf)
	if err := VerifyConfig(conf); err != nil {
		return nil, err
	}
	ctx := context.Background()
	region, err := shm.CreateOrOpen(ctx, name, conf.RegionCapacity)
	if err != nil {
		return nil, err
	}
	signals, err := shm.OpenSignalPair(ctx, name)
	if err != nil {
		_ = region.Close()
		return nil, err
	}
	metrics, err := newChannelMetrics(name, r, conf)
	if err != nil {
		_ = signals.Close()
		_ = region.Close()
		return nil, err
	}
	c := &channel{
		name:    name,
		role:    r,
		conf:    conf,
		region:  region,
		signals: signals,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Name returns the channel name.
func (c *channel) Name() string { return c.name }

// report records an error the pump survived.
func (c *channel) report(err error) {
	kind := errorKind(err)
	c.consecutiveErrors.Add(1)
	c.lastErr.Store(errBox{err})
	c.metrics.errors.WithLabelValues(kind).Inc()
	internalLogger.warnf("%s %s: %s error: %v", c.role, c.name, kind, err)
	if c.conf.ErrorHandler != nil {
		c.conf.ErrorHandler(err)
	}
}

func (c *channel) succeeded() {
	c.consecutiveErrors.Store(0)
}

func (c *channel) stopping() bool {
	return c.ctx.Err() != nil
}

// sleep waits d, returning early on shutdown. It reports whether the channel still runs.
func (c *channel) sleep(d time.Duration) bool {
	if d <= 0 {
		return !c.stopping()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// newRetryBackOff paces retries of a failed region or signal operation. It never
// gives up and never waits longer than WaitTimeout.
func (c *channel) newRetryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	if b.InitialInterval > c.conf.WaitTimeout {
		b.InitialInterval = c.conf.WaitTimeout
	}
	b.MaxInterval = c.conf.WaitTimeout
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// finish releases the shared resources. Only the pump calls it, once, on exit.
func (c *channel) finish() {
	err := errors.Join(c.signals.Close(), c.region.Close())
	if c.conf.UnlinkOnClose {
		err = errors.Join(err, shm.UnlinkSignalPair(c.name), shm.Unlink(c.name))
	}
	if err != nil {
		internalLogger.errorf("%s %s: release: %v", c.role, c.name, err)
	}
	c.closeErr = err
	internalLogger.infof("%s %s stopped", c.role, c.name)
	close(c.done)
}

func (c *channel) close() error {
	c.cancel()
	<-c.done
	return c.closeErr
}

// Done is closed once the pump has stopped and released the region.
func (c *channel) Done() <-chan struct{} {
	return c.done
}

// Alive reports an error once the pump has stopped.
func (c *channel) Alive() error {
	select {
	case <-c.done:
		return fmt.Errorf("bulk: %s %s stopped", c.role, c.name)
	default:
		return nil
	}
}

// Ready reports an error while the pump is stopped or failing repeatedly.
func (c *channel) Ready() error {
	if err := c.Alive(); err != nil {
		return err
	}
	if n := c.consecutiveErrors.Load(); n >= int64(c.conf.MaxConsecutiveErrors) {
		var last error
		if b, ok := c.lastErr.Load().(errBox); ok {
			last = b.err
		}
		return fmt.Errorf("bulk: %s %s: %d consecutive errors, last: %w", c.role, c.name, n, last)
	}
	return nil
}
