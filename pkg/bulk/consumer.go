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
	"fmt"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/shm-bulk/api"
)

const ackRetries = 3

// Handler receives every payload a consumer reads, one call at a time, in
// the order the producer wrote them. The slice is owned by the handler.
type Handler interface {
	HandlePayload(payload []byte)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(payload []byte)

// HandlePayload calls f(payload).
func (f HandlerFunc) HandlePayload(payload []byte) { f(payload) }

// ConsumerState is the position of the consumer pump in its cycle.
type ConsumerState uint32

const (
	ConsumerAwaitingBatch ConsumerState = iota
	ConsumerReading
	ConsumerAcking
	ConsumerDispatching
)

func (s ConsumerState) String() string {
	switch s {
	case ConsumerAwaitingBatch:
		return "AwaitingBatch"
	case ConsumerReading:
		return "Reading"
	case ConsumerAcking:
		return "Acking"
	case ConsumerDispatching:
		return "Dispatching"
	default:
		return fmt.Sprintf("ConsumerState(%d)", uint32(s))
	}
}

var _ api.Consumer = (*Consumer)(nil)

// Consumer reads batches from the region and hands their payloads to a Handler.
type Consumer struct {
	*channel
	handler Handler
	state   atomic.Uint32
}

// NewConsumer opens the region called name and starts the consumer pump.
// A nil conf means DefaultConfig.
func NewConsumer(name string, handler Handler, conf *Config) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	ch, err := openChannel(name, roleConsumer, conf)
	if err != nil {
		return nil, err
	}
	c := &Consumer{channel: ch, handler: handler}
	go c.pump()
	internalLogger.infof("consumer %s started, region capacity %d", name, ch.conf.RegionCapacity)
	return c, nil
}

// State returns the current pump state.
func (c *Consumer) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

func (c *Consumer) setState(s ConsumerState) {
	c.state.Store(uint32(s))
}

// Close stops the consumer, waits for the pump and releases the region. A batch
// already acknowledged is dispatched before the pump exits.
func (c *Consumer) Close() error {
	return c.close()
}

// CloseAsync asks the consumer to stop and returns at once.
func (c *Consumer) CloseAsync() {
	c.cancel()
}

func (c *Consumer) pump() {
	defer c.finish()
	retry := c.newRetryBackOff()
	for !c.stopping() {
		signaled, err := c.signals.WriteReady.Wait(c.conf.WaitTimeout)
		if err != nil {
			c.report(err)
			c.sleep(retry.NextBackOff())
			continue
		}
		if !signaled {
			continue
		}
		retry.Reset()
		if c.receive() {
			c.succeeded()
		}
	}
}

// receive runs Reading, Acking and Dispatching back to back. It reports whether
// the batch went through without error.
func (c *Consumer) receive() bool {
	ok := true

	c.setState(ConsumerReading)
	payloads, err := c.readBatch()
	if err != nil {
		c.report(err)
		ok = false
	}

	c.setState(ConsumerAcking)
	if err := c.ack(); err != nil {
		c.report(err)
		ok = false
	}

	c.setState(ConsumerDispatching)
	for _, p := range payloads {
		if !c.dispatch(p) {
			ok = false
		}
	}

	c.setState(ConsumerAwaitingBatch)
	return ok
}

func (c *Consumer) readBatch() ([][]byte, error) {
	ctx, span := c.metrics.tracer.Start(c.ctx, "bulkshm.consumer.read_batch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("bulkshm.channel", c.name)))
	defer span.End()

	payloads, err := DecodeBatch(c.region, int64(c.region.Cap()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	size := countFieldSize
	for _, p := range payloads {
		size += EncodedSize(len(p))
	}
	span.SetAttributes(
		attribute.Int("bulkshm.batch.payloads", len(payloads)),
		attribute.Int("bulkshm.batch.bytes", size),
	)
	c.metrics.batches.Inc()
	c.metrics.batchBytes.Add(float64(size))
	c.metrics.batchPayloads.Record(ctx, int64(len(payloads)), c.metrics.attrs)
	protocolLogger.tracef("consumer %s read batch count:%d bytes:%d", c.name, len(payloads), size)
	return payloads, nil
}

// ack hands the region back to the producer.
func (c *Consumer) ack() error {
	b := backoff.WithContext(backoff.WithMaxRetries(c.newRetryBackOff(), ackRetries), c.ctx)
	return backoff.Retry(c.signals.ReadReady.Set, b)
}

func (c *Consumer) dispatch(payload []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.report(fmt.Errorf("%w: %v", errHandlerPanic, r))
			ok = false
		}
	}()
	c.handler.HandlePayload(payload)
	c.metrics.delivered.Inc()
	return true
}
