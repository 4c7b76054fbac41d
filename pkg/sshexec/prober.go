package sshexec

import (
	"context"
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
)

// DiscoveryProber adapts a Transport into a credential.Prober: it opens a
// session (authenticating and reaching a prompt) and closes it immediately,
// never sending a data command.
type DiscoveryProber struct {
	Transport Transport
	Timeout time.Duration
}

// NewDiscoveryProber returns a DiscoveryProber over transport. A nil
// transport uses SSHTransport; timeout defaults to 10s if zero.
func NewDiscoveryProber(transport Transport, timeout time.Duration) *DiscoveryProber {
	if transport == nil {
		transport = SSHTransport{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscoveryProber{Transport: transport, Timeout: timeout}
}

// Probe implements credential.Prober.
func (p *DiscoveryProber) Probe(ctx context.Context, device *domain.Device, cred *domain.DecryptedCredential) error {
	session, err := p.Transport.Open(ctx, device, cred, p.Timeout)
	if err != nil {
		return err
	}
	return session.Close()
}
