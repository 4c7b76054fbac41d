// Package runner orchestrates job and batch execution: resolving devices,
// running the SSH pool, validating output, persisting captures and history,
// and composing jobs into a batch. It is the only writer to the
// history store during a run.
package runner
