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

	"github.com/srediag/shm-bulk/pkg/shm"
)

var (
	// ErrClosed is returned by Write after the producer was closed.
	ErrClosed = errors.New("bulk: channel closed")
	// ErrInvalidConfig wraps every VerifyConfig failure.
	ErrInvalidConfig = errors.New("bulk: invalid config")
	// ErrNilHandler is returned by NewConsumer without a handler.
	ErrNilHandler = errors.New("bulk: nil payload handler")
	// ErrNotDrained is returned by Shutdown when the queue could not be flushed in time.
	ErrNotDrained = errors.New("bulk: queue not drained")

	errHandlerPanic = errors.New("bulk: payload handler panicked")
)

// TransportError reports a region or signal failure; see shm.TransportError.
type TransportError = shm.TransportError

// ProtocolError reports a frame in the region that contradicts its own header.
type ProtocolError struct {
	Reason string
	Offset int64
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("bulk protocol: %s at offset %d", e.Reason, e.Offset)
}

// CapacityError reports a payload that can never fit in a batch of the region.
type CapacityError struct {
	Size     int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("bulk capacity: payload of %d bytes (%d encoded) can not fit region of %d bytes",
		e.Size, countFieldSize+EncodedSize(e.Size), e.Capacity)
}

// errorKind classifies err for metrics and logs.
func errorKind(err error) string {
	var (
		te *TransportError
		pe *ProtocolError
		ce *CapacityError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "protocol"
	case errors.As(err, &ce):
		return "capacity"
	case errors.Is(err, errHandlerPanic):
		return "handler"
	default:
		return "other"
	}
}
