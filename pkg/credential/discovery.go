package credential

import (
	"context"
	"sync"
	"time"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/metrics"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Prober performs a connect-only authentication probe: reach a prompt and
// return, never executing a data command. Implemented by pkg/sshexec and
// wired in by the CLI so this package stays transport-free.
type Prober interface {
	Probe(ctx context.Context, device *domain.Device, cred *domain.DecryptedCredential) error
}

// Options configures a discovery run.
type Options struct {
	// RateLimiter caps the rate of probe attempts across all devices; nil
	// means unbounded.
	RateLimiter *rate.Limiter
	// SkipRecentlyTestedWithin skips devices whose last test happened more
	// recently than this, relative to Now. Zero disables the skip.
	SkipRecentlyTestedWithin time.Duration
	// Concurrency bounds how many devices are probed at once. Defaults to 8
	// if zero or negative.
	Concurrency int
	// Now is the reference time for the recently-tested check; defaults to
	// time.Now if zero, overridable so tests are deterministic.
	Now time.Time
}

// Result is the per-device outcome of a discovery run.
type Result struct {
	DeviceID string
	DeviceName string
	Skipped bool
	Success bool
	WorkingCredentialID string
	Unreachable bool // aborted after a non-auth failure
	Err error
}

// Run probes candidates against each device, ordering a device's prior
// working credential first, and reports the first one that authenticates.
func Run(ctx context.Context, prober Prober, devices []*domain.Device, candidates []*domain.DecryptedCredential, opts Options) []Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	results := make([]Result, len(devices))
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	for i, device := range devices {
		if opts.SkipRecentlyTestedWithin > 0 && !device.LastCredentialTestAt.IsZero() &&
			now.Sub(device.LastCredentialTestAt) < opts.SkipRecentlyTestedWithin {
			results[i] = Result{DeviceID: device.ID, DeviceName: device.Name, Skipped: true}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{DeviceID: device.ID, DeviceName: device.Name, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, device *domain.Device) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = probeDevice(ctx, prober, device, candidates, opts.RateLimiter)
		}(i, device)
	}

	wg.Wait()

	for _, r := range results {
		switch {
		case r.Skipped:
			metrics.DiscoveryProbesTotal.WithLabelValues("skipped").Inc()
		case r.Success:
			metrics.DiscoveryProbesTotal.WithLabelValues("success").Inc()
		case r.Unreachable:
			metrics.DiscoveryProbesTotal.WithLabelValues("unreachable").Inc()
		default:
			metrics.DiscoveryProbesTotal.WithLabelValues("failed").Inc()
		}
	}

	return results
}

func probeDevice(ctx context.Context, prober Prober, device *domain.Device, candidates []*domain.DecryptedCredential, limiter *rate.Limiter) Result {
	ordered := orderCandidates(device, candidates)
	logger := log.WithDevice(device.Name)

	var lastErr error
	for _, cred := range ordered {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return Result{DeviceID: device.ID, DeviceName: device.Name, Err: err}
			}
		}

		err := prober.Probe(ctx, device, cred)
		if err == nil {
			logger.Info().Str("credential_id", cred.ID).Msg("discovery: credential authenticated")
			return Result{
				DeviceID: device.ID,
				DeviceName: device.Name,
				Success: true,
				WorkingCredentialID: cred.ID,
			}
		}

		lastErr = err
		if kind, ok := collectorerr.KindOf(err); ok && kind == collectorerr.AuthFailed {
			continue
		}

		// Non-auth failure: retrying other secrets is useless here.
		logger.Warn().Err(err).Msg("discovery: device unreachable, aborting remaining candidates")
		return Result{DeviceID: device.ID, DeviceName: device.Name, Unreachable: true, Err: err}
	}

	return Result{DeviceID: device.ID, DeviceName: device.Name, Err: lastErr}
}

// orderCandidates puts the device's previously-working credential first, if
// it appears in candidates, preserving the relative order of the rest.
func orderCandidates(device *domain.Device, candidates []*domain.DecryptedCredential) []*domain.DecryptedCredential {
	if device.PinnedCredentialID == "" {
		return candidates
	}
	ordered := make([]*domain.DecryptedCredential, 0, len(candidates))
	var pinned *domain.DecryptedCredential
	for _, c := range candidates {
		if c.ID == device.PinnedCredentialID {
			pinned = c
			continue
		}
		ordered = append(ordered, c)
	}
	if pinned == nil {
		return candidates
	}
	return append([]*domain.DecryptedCredential{pinned}, ordered...)
}
