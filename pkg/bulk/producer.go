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
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/shm-bulk/api"
)

const drainPollInterval = 5 * time.Millisecond

// ProducerState is the position of the producer pump in its cycle.
type ProducerState uint32

const (
	ProducerIdle ProducerState = iota
	ProducerBuilding
	ProducerWriting
	ProducerAwaitingAck
)

func (s ProducerState) String() string {
	switch s {
	case ProducerIdle:
		return "Idle"
	case ProducerBuilding:
		return "Building"
	case ProducerWriting:
		return "Writing"
	case ProducerAwaitingAck:
		return "AwaitingAck"
	default:
		return fmt.Sprintf("ProducerState(%d)", uint32(s))
	}
}

var _ api.Producer = (*Producer)(nil)

// Producer queues payloads and moves them in batches through the region.
type Producer struct {
	*channel
	queue *OutboundQueue
	gate  Gate
	state atomic.Uint32
}

// NewProducer opens the region called name and starts the producer pump.
// A nil conf means DefaultConfig.
func NewProducer(name string, conf *Config) (*Producer, error) {
	ch, err := openChannel(name, roleProducer, conf)
	if err != nil {
		return nil, err
	}
	p := &Producer{
		channel: ch,
		queue:   NewOutboundQueue(),
		gate:    ch.conf.Gate,
	}
	start, err := p.resumeHandshake()
	if err != nil {
		_ = p.signals.Close()
		_ = p.region.Close()
		return nil, err
	}
	p.setState(start)
	go p.pump()
	internalLogger.infof("producer %s started, region capacity %d", name, ch.conf.RegionCapacity)
	return p, nil
}

// resumeHandshake picks up the handshake where an earlier producer of the same
// region left it. An ack nobody waited for is dropped, so it can not stand in for
// the ack of our own first batch. A batch still announced and unread must be acked
// before the region is written again.
func (p *Producer) resumeHandshake() (ProducerState, error) {
	if stale, err := p.signals.ReadReady.TryWait(); err != nil {
		return ProducerIdle, err
	} else if stale {
		internalLogger.infof("producer %s dropped a stale ack", p.name)
	}
	unread, err := p.signals.WriteReady.IsSet()
	if err != nil {
		return ProducerIdle, err
	}
	if unread {
		internalLogger.infof("producer %s found an unread batch, waiting for its ack", p.name)
		return ProducerAwaitingAck, nil
	}
	return ProducerIdle, nil
}

// Write queues payload for delivery and returns immediately. A nil payload is
// ignored; an empty one is delivered as an empty payload. Write does not copy:
// the caller must not modify payload after a successful Write.
func (p *Producer) Write(payload []byte) error {
	if payload == nil {
		return nil
	}
	if p.stopping() {
		return ErrClosed
	}
	if !Fits(len(payload), p.conf.RegionCapacity) {
		return &CapacityError{Size: len(payload), Capacity: p.conf.RegionCapacity}
	}
	// counted first so the pump never takes the gauge below zero
	p.metrics.depth.Inc()
	if err := p.queue.Enqueue(payload); err != nil {
		p.metrics.depth.Dec()
		return err
	}
	p.metrics.enqueued.Inc()
	return nil
}

// Pending returns the number of payloads not yet taken into a batch.
func (p *Producer) Pending() int {
	return p.queue.Len()
}

// State returns the current pump state.
func (p *Producer) State() ProducerState {
	return ProducerState(p.state.Load())
}

func (p *Producer) setState(s ProducerState) {
	p.state.Store(uint32(s))
}

// Shutdown waits until every payload queued so far has been acknowledged by the
// consumer, or ctx is done, then stops the producer. The returned error wraps
// ErrNotDrained and the context error when the queue was not flushed.
func (p *Producer) Shutdown(ctx context.Context) error {
	drainErr := backoff.Retry(func() error {
		if p.drained() {
			return nil
		}
		if p.stopping() {
			return backoff.Permanent(ErrClosed)
		}
		return ErrNotDrained
	}, backoff.WithContext(backoff.NewConstantBackOff(drainPollInterval), ctx))
	pending := p.Pending()
	closeErr := p.Close()
	if drainErr != nil {
		return errors.Join(fmt.Errorf("%w: %d payloads pending: %w", ErrNotDrained, pending, drainErr), closeErr)
	}
	return closeErr
}

func (p *Producer) drained() bool {
	return p.queue.Len() == 0 && p.State() == ProducerIdle
}

// Close stops the producer without draining, waits for the pump and releases
// the region. Queued payloads are dropped.
func (p *Producer) Close() error {
	return p.close()
}

// CloseAsync asks the producer to stop and returns at once. The pump releases
// the region when it exits; Done tells when.
func (p *Producer) CloseAsync() {
	p.cancel()
}

func (p *Producer) pump() {
	defer p.exit()
	retry := p.newRetryBackOff()
	var (
		batch *bytebufferpool.ByteBuffer
		count int
	)
	for !p.stopping() {
		switch p.State() {
		case ProducerIdle:
			if p.gate != nil {
				if err := p.gate.Wait(p.ctx); err != nil {
					if !p.stopping() {
						p.report(err)
						p.sleep(retry.NextBackOff())
					}
					continue
				}
			}
			if p.queue.Len() == 0 {
				p.idle()
				continue
			}
			p.setState(ProducerBuilding)

		case ProducerBuilding:
			batch = bytebufferpool.Get()
			count = buildBatch(batch, p.queue, p.conf.RegionCapacity)
			if count == 0 {
				bytebufferpool.Put(batch)
				batch = nil
				p.discardUnfit()
				p.setState(ProducerIdle)
				continue
			}
			p.metrics.depth.Sub(float64(count))
			p.setState(ProducerWriting)

		case ProducerWriting:
			if err := p.writeBatch(batch.B, count); err != nil {
				p.report(err)
				p.sleep(retry.NextBackOff())
				continue
			}
			retry.Reset()
			bytebufferpool.Put(batch)
			batch, count = nil, 0
			p.setState(ProducerAwaitingAck)

		case ProducerAwaitingAck:
			acked, err := p.signals.ReadReady.Wait(p.conf.WaitTimeout)
			if err != nil {
				p.report(err)
				p.sleep(retry.NextBackOff())
				continue
			}
			if acked {
				retry.Reset()
				p.succeeded()
				p.setState(ProducerIdle)
			}
		}
	}
	if batch != nil {
		p.metrics.dropped.Add(float64(count))
		internalLogger.warnf("producer %s stopped with an unwritten batch of %d payloads, dropped", p.name, count)
		bytebufferpool.Put(batch)
	}
}

// idle waits for a Write, the wait timeout or shutdown.
func (p *Producer) idle() {
	t := time.NewTimer(p.conf.WaitTimeout)
	defer t.Stop()
	select {
	case <-p.queue.Ready():
	case <-t.C:
	case <-p.ctx.Done():
	}
}

// discardUnfit drops a head payload that no batch can hold so the pump can not
// spin on it. Write rejects such payloads, so this only guards the invariant.
func (p *Producer) discardUnfit() {
	head, ok := p.queue.Peek()
	if !ok || Fits(len(head), p.conf.RegionCapacity) {
		return
	}
	p.queue.Dequeue()
	p.metrics.depth.Dec()
	p.metrics.dropped.Inc()
	p.report(&CapacityError{Size: len(head), Capacity: p.conf.RegionCapacity})
}

func (p *Producer) writeBatch(b []byte, count int) error {
	ctx, span := p.metrics.tracer.Start(p.ctx, "bulkshm.producer.write_batch",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("bulkshm.channel", p.name),
			attribute.Int("bulkshm.batch.payloads", count),
			attribute.Int("bulkshm.batch.bytes", len(b)),
		))
	defer span.End()

	if _, err := p.region.WriteAt(b, 0); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := p.signals.WriteReady.Set(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	p.metrics.batches.Inc()
	p.metrics.batchBytes.Add(float64(len(b)))
	p.metrics.batchPayloads.Record(ctx, int64(count), p.metrics.attrs)
	protocolLogger.tracef("producer %s wrote batch count:%d bytes:%d", p.name, count, len(b))
	return nil
}

func (p *Producer) exit() {
	if left := p.queue.Dispose(); len(left) > 0 {
		p.metrics.dropped.Add(float64(len(left)))
		p.metrics.depth.Sub(float64(len(left)))
		internalLogger.warnf("producer %s stopped with %d payloads queued, dropped", p.name, len(left))
	}
	p.finish()
}
