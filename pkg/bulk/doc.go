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

// Package bulk streams byte payloads from one producer to one consumer through
// a named shared memory region.
//
// A Producer queues payloads without blocking and packs as many as fit into one
// batch, writes it to the region and sets WriteReady. The Consumer copies the
// batch out, sets ReadReady and then calls its Handler once per payload, in
// write order. Only one batch is in the region at a time.
//
//	consumer, err := bulk.NewConsumer("frames", bulk.HandlerFunc(func(p []byte) {
//		// p is owned by the handler
//	}), nil)
//	producer, err := bulk.NewProducer("frames", nil)
//	err = producer.Write(frame)
//	err = producer.Shutdown(ctx)
//
// Both sides must use the same name and Config.RegionCapacity. A held Gate
// pauses the producer so another source can use the link first.
package bulk
