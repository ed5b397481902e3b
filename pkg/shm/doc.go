// Package shm provides named shared memory regions and cross-process signals.
//
// A Region is a fixed-capacity byte area identified by a name; CreateOrOpen is
// idempotent, so a producer and a consumer process that agree on the name map the
// same storage. Regions do no locking. A SignalPair carries the handshake that
// makes region access exclusive:
//
//	region, err := shm.CreateOrOpen(ctx, "frames", 1<<20)
//	signals, err := shm.OpenSignalPair(ctx, "frames")
//	// producer
//	_, err = region.WriteAt(batch, 0)
//	err = signals.WriteReady.Set()
//	ok, err := signals.ReadReady.Wait(time.Second)
//
// On Linux signals park on a futex in the shared mapping; elsewhere they poll.
// Platform-specific helpers are in internal/shm.
package shm
