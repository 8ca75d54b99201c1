// Package workerpool provides a fixed-size worker pool backed by a single
// mutex and condition variable around an unbounded task queue.
//
// Submit enqueues a task and returns immediately; it never blocks on worker
// availability. Each worker waits until the queue is non-empty or the pool
// is stopping, claims one task under the lock, then runs it outside the lock
// so a slow task never delays other dequeues. Shutdown sets the stop flag,
// wakes all workers, lets them drain the remaining queue and joins them.
//
// There are no priorities, no work stealing and no cancellation of in-flight
// tasks. A task that panics is contained and logged at the task boundary;
// the worker keeps serving the queue.
package workerpool
