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
	"math"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultRegionCapacity is the size of every region unless a Config says otherwise.
	// Producer and consumer must agree on it.
	DefaultRegionCapacity = 40000000
	// DefaultWaitTimeout bounds every signal wait, and therefore shutdown latency.
	DefaultWaitTimeout = time.Second
	// DefaultMaxConsecutiveErrors is the readiness threshold.
	DefaultMaxConsecutiveErrors = 10

	minRegionCapacity = countFieldSize + lengthFieldSize + 1
	instrumentScope   = "github.com/srediag/shm-bulk/pkg/bulk"
)

// Config is used to tune a producer or a consumer.
type Config struct {
	// RegionCapacity is the size in bytes of the shared region.
	RegionCapacity int

	// WaitTimeout bounds each wait of a pump on a signal, gate or idle queue.
	// Shutdown is observed at least once per WaitTimeout.
	WaitTimeout time.Duration

	// Gate, when set, must be open before the producer takes anything from its queue.
	// Ignored by consumers.
	Gate Gate

	// ErrorHandler receives every error a pump survives. It runs on the pump goroutine.
	ErrorHandler func(error)

	// MaxConsecutiveErrors pump failures in a row make Ready report an error.
	MaxConsecutiveErrors int

	// UnlinkOnClose removes the region and signal storage when the channel stops.
	// Only the side that outlives the other should set it.
	UnlinkOnClose bool

	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultConfig returns the default config.
func DefaultConfig() *Config {
	return &Config{
		RegionCapacity:       DefaultRegionCapacity,
		WaitTimeout:          DefaultWaitTimeout,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErrors,
		Meter:                metricnoop.NewMeterProvider().Meter(instrumentScope),
		Tracer:               tracenoop.NewTracerProvider().Tracer(instrumentScope),
	}
}

// VerifyConfig is used to verify the sanity of configuration.
func VerifyConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if config.RegionCapacity < minRegionCapacity || config.RegionCapacity > math.MaxInt32 {
		return fmt.Errorf("%w: RegionCapacity %d must be in [%d, %d]",
			ErrInvalidConfig, config.RegionCapacity, minRegionCapacity, math.MaxInt32)
	}
	if config.WaitTimeout <= 0 {
		return fmt.Errorf("%w: WaitTimeout must be positive", ErrInvalidConfig)
	}
	if config.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("%w: MaxConsecutiveErrors must be positive", ErrInvalidConfig)
	}
	return nil
}

// withDefaults copies config and fills the zero-valued instrumentation fields.
func withDefaults(config *Config) *Config {
	if config == nil {
		return DefaultConfig()
	}
	c := *config
	def := DefaultConfig()
	if c.Meter == nil {
		c.Meter = def.Meter
	}
	if c.Tracer == nil {
		c.Tracer = def.Tracer
	}
	return &c
}
