package main

import (
	"fmt"

	"github.com/ravensys/netcollect/pkg/progress"
)

// newConsoleSink returns a BufferedSink paired with a goroutine that drains
// it and prints one line per completion event, and a drain func the caller
// must invoke after the producer is done publishing (it closes the sink
// and waits for the printer to catch up). capacity must be large enough
// that Publish never blocks the worker pool for long; 2x the device
// concurrency matches sshexec.Pool's own default.
func newConsoleSink(capacity int) (sink *progress.BufferedSink, drain func()) {
	if capacity < 1 {
		capacity = 2
	}
	sink = progress.NewBufferedSink(capacity)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range sink.Events() {
			status := "success"
			switch {
			case e.Skipped:
				status = "skipped"
			case !e.Success:
				status = "failed"
			}
			fmt.Printf("[%d/%d] %-24s %-8s %5dms\n", e.Index, e.Total, e.DeviceName, status, e.DurationMS)
		}
	}()

	return sink, func() {
		sink.Close()
		<-done
	}
}
