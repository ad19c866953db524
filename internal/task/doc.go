// Package task turns post submissions with attached photos and videos into
// durable uploads before the post itself is created.
//
// A Scheduler owns an ordered queue of submissions and processes exactly one
// at a time in FIFO order. The media items of the active submission are
// compressed and uploaded concurrently; a failing item is dropped without
// failing the submission. Once every remaining item is uploaded the caller's
// finalize function runs exactly once, and the scheduler moves on.
package task
