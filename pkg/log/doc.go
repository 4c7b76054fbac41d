// Package log wraps zerolog with the fields the collection core attaches to
// every run: component, job slug, run id, device, and batch name. Call
// Init once at process startup; every other package derives a child logger
// from the global Logger via the With* helpers instead of holding its own
// zerolog instance.
package log
