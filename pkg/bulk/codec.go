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
	"encoding/binary"
	"io"
	"math"

	"github.com/valyala/bytebufferpool"
)

// Batch layout at region offset 0, little-endian:
//
//	int32 count
//	count × { int32 length | length bytes }
const (
	countFieldSize  = 4
	lengthFieldSize = 4
)

var byteOrder = binary.LittleEndian

// EncodedSize is the number of bytes a payload of n bytes takes inside a batch.
func EncodedSize(n int) int {
	return lengthFieldSize + n
}

// Fits reports whether a payload of n bytes can ever be packed into a batch of a
// region with the given capacity. A batch must stay strictly below capacity.
func Fits(n, capacity int) bool {
	return encodable(n) && countFieldSize+EncodedSize(n) < capacity
}

// encodable reports whether n can be stored in an int32 header field.
func encodable(n int) bool {
	return n >= 0 && n <= math.MaxInt32
}

// AppendBatch appends the encoding of payloads to dst. It fails with a
// *CapacityError, leaving dst untouched, when a payload or the payload count
// does not fit an int32 field.
func AppendBatch(dst []byte, payloads [][]byte) ([]byte, error) {
	if !encodable(len(payloads)) {
		return dst, &CapacityError{Size: len(payloads), Capacity: math.MaxInt32}
	}
	for _, p := range payloads {
		if !encodable(len(p)) {
			return dst, &CapacityError{Size: len(p), Capacity: math.MaxInt32}
		}
	}
	dst = byteOrder.AppendUint32(dst, uint32(len(payloads)))
	for _, p := range payloads {
		dst = byteOrder.AppendUint32(dst, uint32(len(p)))
		dst = append(dst, p...)
	}
	return dst, nil
}

// payloadSource is the head of a FIFO, as seen by the single reader.
type payloadSource interface {
	Len() int
	Peek() ([]byte, bool)
	Dequeue() ([]byte, bool)
}

// buildBatch greedily moves payloads from the head of src into buf until the next
// one would make the batch reach capacity. It returns the number of payloads packed.
// Payloads left behind stay at the head of src in their original order.
func buildBatch(buf *bytebufferpool.ByteBuffer, src payloadSource, capacity int) int {
	buf.Reset()
	buf.B = append(buf.B, 0, 0, 0, 0)
	total := countFieldSize
	count := 0
	// the snapshot bounds this pass; writers may keep appending behind it
	for n := src.Len(); count < n; {
		p, ok := src.Peek()
		if !ok {
			break
		}
		size := EncodedSize(len(p))
		if total+size >= capacity {
			break
		}
		if _, ok := src.Dequeue(); !ok {
			break
		}
		buf.B = byteOrder.AppendUint32(buf.B, uint32(len(p)))
		buf.B = append(buf.B, p...)
		total += size
		count++
	}
	byteOrder.PutUint32(buf.B[:countFieldSize], uint32(count))
	return count
}

// DecodeBatch reads one batch from r, which holds limit readable bytes, and
// returns copies of its payloads in order.
func DecodeBatch(r io.ReaderAt, limit int64) ([][]byte, error) {
	var field [4]byte
	if limit < countFieldSize {
		return nil, &ProtocolError{Reason: "region smaller than batch header", Offset: 0}
	}
	if _, err := r.ReadAt(field[:], 0); err != nil {
		return nil, err
	}
	count := int32(byteOrder.Uint32(field[:]))
	if count < 0 || int64(count) > (limit-countFieldSize)/lengthFieldSize {
		return nil, &ProtocolError{Reason: "invalid payload count", Offset: 0}
	}

	payloads := make([][]byte, 0, count)
	off := int64(countFieldSize)
	for i := int32(0); i < count; i++ {
		if off+lengthFieldSize > limit {
			return nil, &ProtocolError{Reason: "truncated length field", Offset: off}
		}
		if _, err := r.ReadAt(field[:], off); err != nil {
			return nil, err
		}
		length := int32(byteOrder.Uint32(field[:]))
		off += lengthFieldSize
		if length < 0 || int64(length) > limit-off {
			return nil, &ProtocolError{Reason: "truncated payload", Offset: off}
		}
		p := make([]byte, length)
		if length > 0 {
			if _, err := r.ReadAt(p, off); err != nil {
				return nil, err
			}
		}
		off += int64(length)
		payloads = append(payloads, p)
	}
	return payloads, nil
}
