package sshexec

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/credential"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/log"
	"github.com/ravensys/netcollect/pkg/progress"
	"golang.org/x/sync/semaphore"
)

const maxWorkerCeiling = 64

// Pool runs a job's command sequence against a device set with bounded
// concurrency.
type Pool struct {
	commands domain.Commands
	execPolicy domain.ExecutionPolicy
	credResolver *credential.Resolver
	transport Transport
	sink progress.Sink
}

// New returns a Pool. sink may be nil, in which case a BufferedSink sized
// at 2x the clamped worker count is created.
func New(commands domain.Commands, execPolicy domain.ExecutionPolicy, credResolver *credential.Resolver, transport Transport, sink progress.Sink) *Pool {
	if transport == nil {
		transport = SSHTransport{}
	}
	if sink == nil {
		sink = progress.NewBufferedSink(2 * clampWorkers(execPolicy.MaxDevicesInFlight))
	}
	return &Pool{
		commands: commands,
		execPolicy: execPolicy,
		credResolver: credResolver,
		transport: transport,
		sink: sink,
	}
}

func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxWorkerCeiling {
		return maxWorkerCeiling
	}
	return n
}

// Run executes the command sequence against every device, in completion
// order publishing a progress.Event for each. overrideCredentialID forces
// every device onto one credential for this run; pass "" to resolve
// per-device as usual.
func (p *Pool) Run(ctx context.Context, devices []*domain.Device, overrideCredentialID string) []Outcome {
	total := len(devices)
	results := make([]Outcome, total)
	sem := semaphore.NewWeighted(int64(clampWorkers(p.execPolicy.MaxDevicesInFlight)))
	var wg sync.WaitGroup
	var completed int64

	for i, device := range devices {
		select {
		case <-ctx.Done():
			results[i] = Outcome{DeviceID: device.ID, DeviceName: device.Name, Skipped: true}
			p.publish(&completed, total, results[i])
			continue
		default:
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Outcome{DeviceID: device.ID, DeviceName: device.Name, Skipped: true}
			p.publish(&completed, total, results[i])
			continue
		}

		wg.Add(1)
		go func(i int, device *domain.Device) {
			defer wg.Done()
			defer sem.Release(1)
			outcome := p.runDevice(ctx, device, overrideCredentialID)
			results[i] = outcome
			p.publish(&completed, total, outcome)
		}(i, device)
	}

	wg.Wait()
	return results
}

func (p *Pool) publish(completed *int64, total int, outcome Outcome) {
	idx := atomic.AddInt64(completed, 1)
	p.sink.Publish(progress.Event{
		Index: int(idx),
		Total: total,
		DeviceID: outcome.DeviceID,
		DeviceName: outcome.DeviceName,
		Success: outcome.Success,
		Skipped: outcome.Skipped,
		DurationMS: outcome.DurationMS,
		ErrorKind: string(outcome.ErrorKind),
		ErrorMessage: outcome.ErrorMessage,
	})
}

func (p *Pool) runDevice(ctx context.Context, device *domain.Device, overrideCredentialID string) Outcome {
	start := time.Now()
	logger := log.WithDevice(device.Name)

	cred, err := p.credResolver.Resolve(device, overrideCredentialID)
	if err != nil {
		kind, _ := collectorerr.KindOf(err)
		return failOutcome(device, start, kind, err.Error())
	}

	deviceCtx, cancel := context.WithTimeout(ctx, p.execPolicy.PerDeviceTimeout)
	defer cancel()

	session, err := p.transport.Open(deviceCtx, device, cred, p.execPolicy.PerDeviceTimeout)
	if err != nil {
		kind, ok := collectorerr.KindOf(err)
		if !ok {
			kind = collectorerr.TransportError
		}
		outcome := failOutcome(device, start, kind, err.Error())
		outcome.CredentialID = cred.ID
		return outcome
	}
	defer session.Close()

	if p.commands.PagingDisablePrelude != "" {
		if _, err := session.SendCommand(deviceCtx, p.commands.PagingDisablePrelude, p.execPolicy.PerDeviceTimeout); err != nil {
			logger.Warn().Err(err).Msg("paging-disable prelude failed, continuing")
		}
	}

	var out strings.Builder
	for i, cmd := range p.commands.Primary {
		chunk, err := session.SendCommand(deviceCtx, cmd, p.execPolicy.PerDeviceTimeout)
		if err != nil {
			kind, ok := collectorerr.KindOf(err)
			if !ok {
				kind = collectorerr.CommandError
			}
			outcome := failOutcome(device, start, kind, err.Error())
			outcome.CredentialID = cred.ID
			outcome.Output = out.String()
			return outcome
		}
		out.WriteString(chunk)

		if i < len(p.commands.Primary)-1 {
			out.WriteString("\n---\n")
			if p.execPolicy.InterCommandPause > 0 {
				select {
				case <-time.After(p.execPolicy.InterCommandPause):
				case <-deviceCtx.Done():
				}
			}
		}
	}

	return Outcome{
		DeviceID: device.ID,
		DeviceName: device.Name,
		Host: device.PrimaryAddress,
		Success: true,
		DurationMS: time.Since(start).Milliseconds(),
		Output: out.String(),
		CredentialID: cred.ID,
	}
}

func failOutcome(device *domain.Device, start time.Time, kind collectorerr.Kind, message string) Outcome {
	return Outcome{
		DeviceID: device.ID,
		DeviceName: device.Name,
		Host: device.PrimaryAddress,
		Success: false,
		DurationMS: time.Since(start).Milliseconds(),
		ErrorKind: kind,
		ErrorMessage: message,
	}
}
