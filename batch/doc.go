// Package batch runs external commands with bounded parallelism.
//
// Commands are launched in input order. Once maxParallel commands have been
// launched, the scheduler waits for every one of them to finish before it
// launches the next group. A batch is therefore only as fast as its slowest
// member; this keeps memory and CPU use of the external tools predictable on
// shared machines, and is not meant to be a refill-on-completion pool.
//
// A non-zero exit status is data, not an error: it is returned in the result
// slice at the position of its command. Only a failure to launch a process is
// returned as an error. There is no timeout: a job that never exits blocks the
// scheduler forever.
package batch
