// Package sshexec implements the concurrent SSH execution pool: a
// bounded worker set that runs a job's command sequence against a device
// set, resolving credentials per device, streaming completion events
// through pkg/progress, and returning a per-device Outcome.
//
// Pool depends on the Transport interface rather than golang.org/x/crypto/ssh
// directly, so its worker-bound, timeout, and cancellation logic can be
// tested with a fake transport; SSHTransport is the real implementation.
package sshexec
