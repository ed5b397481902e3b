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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.Equal(t, nil, RegisterMetrics(reg))
	assert.Equal(t, nil, RegisterMetrics(reg))

	m, err := newChannelMetrics("metrics-test", roleProducer, DefaultConfig())
	assert.Equal(t, nil, err)
	m.enqueued.Add(3)
	m.depth.Set(2)
	m.errors.WithLabelValues("transport").Inc()

	families, err := reg.Gather()
	assert.Equal(t, nil, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	for _, name := range []string{
		"bulkshm_payloads_enqueued_total",
		"bulkshm_queue_depth",
		"bulkshm_errors_total",
	} {
		assert.Contains(t, byName, name)
	}

	errFamily := byName["bulkshm_errors_total"]
	found := false
	for _, metric := range errFamily.GetMetric() {
		labels := map[string]string{}
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["channel"] == "metrics-test" {
			found = true
			assert.Equal(t, "producer", labels["role"])
			assert.Equal(t, "transport", labels["kind"])
			assert.Equal(t, float64(1), metric.GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestRegisterMetrics_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	// same name, different help: a real conflict must surface
	assert.Equal(t, nil, reg.Register(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bulkshm_batches_total",
		Help: "something else",
	})))
	assert.NotNil(t, RegisterMetrics(reg))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "protocol", errorKind(fmt.Errorf("wrapped: %w", &ProtocolError{Reason: "x"})))
	assert.Equal(t, "capacity", errorKind(&CapacityError{Size: 10, Capacity: 8}))
	assert.Equal(t, "transport", errorKind(&TransportError{Op: "set", Name: "n", Err: ErrClosed}))
	assert.Equal(t, "handler", errorKind(fmt.Errorf("%w: boom", errHandlerPanic)))
	assert.Equal(t, "other", errorKind(errors.New("x")))

	ce := &CapacityError{Size: 100, Capacity: 64}
	assert.Contains(t, ce.Error(), "108 encoded")
}
