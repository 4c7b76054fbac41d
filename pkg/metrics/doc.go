/*
Package metrics exposes Prometheus instrumentation for the collection core:
devices in flight, outcomes by kind, validation scores, and capture bytes
written. All metrics register at package init against the default registry.

# Usage

	jr.Run records DevicesInFlight, DeviceOutcomesTotal, ValidationScore, and
	CaptureBytesTotal per job; credential.Run records DiscoveryProbesTotal;
	BatchRunner records BatchJobsTotal per job completion.

	timer := metrics.NewTimer()
	// ... run a job ...
	timer.ObserveDurationVec(metrics.RunDuration, job.Slug)

cmd/netcollect optionally serves the registry over HTTP during a job or
batch run via --metrics-addr, using metrics.Handler().
*/
package metrics
