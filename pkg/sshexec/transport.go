package sshexec

import (
	"context"
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
)

// DeviceSession is an open, authenticated interactive session against one
// device.
type DeviceSession interface {
	// SendCommand writes cmd and reads until the driver's prompt reappears
	// or timeout elapses.
	SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error)
	Close() error
}

// Transport opens device sessions. SSHTransport is the production
// implementation; tests use a fake.
type Transport interface {
	Open(ctx context.Context, device *domain.Device, cred *domain.DecryptedCredential, timeout time.Duration) (DeviceSession, error)
}
