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
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const metricsNamespace = "bulkshm"

var (
	payloadsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "payloads_enqueued_total",
		Help:      "Payloads accepted by Write.",
	}, []string{"channel"})

	payloadsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "payloads_delivered_total",
		Help:      "Payloads handed to the consumer handler.",
	}, []string{"channel"})

	payloadsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "payloads_dropped_total",
		Help:      "Payloads still queued when the producer stopped.",
	}, []string{"channel"})

	batchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "batches_total",
		Help:      "Batches written (producer) or read (consumer).",
	}, []string{"channel", "role"})

	batchBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "batch_bytes_total",
		Help:      "Encoded batch bytes moved through the region.",
	}, []string{"channel", "role"})

	pumpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "errors_total",
		Help:      "Errors survived by a pump, by kind.",
	}, []string{"channel", "role", "kind"})

	queueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "queue_depth",
		Help:      "Payloads waiting in the producer queue.",
	}, []string{"channel"})
)

// RegisterMetrics registers the package collectors with reg. Registering twice is fine.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		payloadsEnqueued, payloadsDelivered, payloadsDropped,
		batchesTotal, batchBytesTotal, pumpErrorsTotal, queueDepth,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// channelMetrics binds the collectors and OTel instruments to one channel.
type channelMetrics struct {
	batches    prometheus.Counter
	batchBytes prometheus.Counter
	errors     *prometheus.CounterVec

	enqueued  prometheus.Counter
	delivered prometheus.Counter
	dropped   prometheus.Counter
	depth     prometheus.Gauge

	batchPayloads metric.Int64Histogram
	attrs         metric.MeasurementOption
	tracer        trace.Tracer
}

func newChannelMetrics(name string, r role, conf *Config) (*channelMetrics, error) {
	hist, err := conf.Meter.Int64Histogram("bulkshm.batch.payloads",
		metric.WithDescription("Payloads per batch."),
		metric.WithUnit("{payload}"))
	if err != nil {
		return nil, fmt.Errorf("bulk: create histogram: %w", err)
	}
	m := &channelMetrics{
		batches:       batchesTotal.WithLabelValues(name, string(r)),
		batchBytes:    batchBytesTotal.WithLabelValues(name, string(r)),
		errors:        pumpErrorsTotal.MustCurryWith(prometheus.Labels{"channel": name, "role": string(r)}),
		batchPayloads: hist,
		attrs: metric.WithAttributes(
			attribute.String("channel", name),
			attribute.String("role", string(r)),
		),
		tracer: conf.Tracer,
	}
	switch r {
	case roleProducer:
		m.enqueued = payloadsEnqueued.WithLabelValues(name)
		m.dropped = payloadsDropped.WithLabelValues(name)
		m.depth = queueDepth.WithLabelValues(name)
	case roleConsumer:
		m.delivered = payloadsDelivered.WithLabelValues(name)
	}
	return m, nil
}
