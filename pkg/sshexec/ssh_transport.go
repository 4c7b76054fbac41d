package sshexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"golang.org/x/crypto/ssh"
)

const defaultPort = "22"

// SSHTransport opens real SSH sessions using golang.org/x/crypto/ssh,
// picking the prompt convention from the device's platform driver hint.
type SSHTransport struct{}

// Open dials device, authenticates with cred, and requests an interactive
// shell with a PTY.
func (SSHTransport) Open(ctx context.Context, device *domain.Device, cred *domain.DecryptedCredential, timeout time.Duration) (DeviceSession, error) {
	addr := device.PrimaryAddress
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, defaultPort)
	}

	config := &ssh.ClientConfig{
		User: cred.Username,
		Auth: authMethods(cred),
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout: timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, collectorerr.Wrap(collectorerr.TransportError, "dial "+addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		netConn.Close()
		return nil, classifyHandshakeError(err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, collectorerr.Wrap(collectorerr.TransportError, "open session", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO: 0,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := session.RequestPty("xterm", 200, 50, modes); err != nil {
		session.Close()
		client.Close()
		return nil, collectorerr.Wrap(collectorerr.TransportError, "request pty", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, collectorerr.Wrap(collectorerr.TransportError, "stdin pipe", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, collectorerr.Wrap(collectorerr.TransportError, "stdout pipe", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, collectorerr.Wrap(collectorerr.TransportError, "start shell", err)
	}

	driver := ForHint(device.Platform.DriverHint)

	ds := &sshDeviceSession{
		client: client,
		session: session,
		stdin: stdin,
		stdout: stdout,
		driver: driver,
	}

	// Drain the login banner and initial prompt before the caller sends its
	// first real command, so that output isn't contaminated with it.
	_, _ = ds.readUntilPrompt(ctx, timeout)

	return ds, nil
}

func authMethods(cred *domain.DecryptedCredential) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if len(cred.PrivateKey) > 0 {
		var signer ssh.Signer
		var err error
		if cred.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(cred.PrivateKey, []byte(cred.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(cred.PrivateKey)
		}
		if err == nil {
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}
	if cred.Password != "" {
		methods = append(methods, ssh.Password(cred.Password))
	}
	return methods
}

// classifyHandshakeError distinguishes an authentication rejection from any
// other transport failure. golang.org/x/crypto/ssh does not export a
// dedicated auth-error type, so this matches on the message the library
// documents for that case.
func classifyHandshakeError(err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return collectorerr.Wrap(collectorerr.AuthFailed, "ssh authentication rejected", err)
	}
	return collectorerr.Wrap(collectorerr.TransportError, "ssh handshake", err)
}

type sshDeviceSession struct {
	client *ssh.Client
	session *ssh.Session
	stdin io.WriteCloser
	stdout io.Reader
	driver Driver
}

func (s *sshDeviceSession) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if _, err := fmt.Fprintf(s.stdin, "%s\n", cmd); err != nil {
		return "", collectorerr.Wrap(collectorerr.CommandError, "write command", err)
	}
	return s.readUntilPrompt(ctx, timeout)
}

func (s *sshDeviceSession) readUntilPrompt(ctx context.Context, timeout time.Duration) (string, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type chunk struct {
		data []byte
		err error
	}
	reads := make(chan chunk, 1)

	var buf bytes.Buffer
	for {
		go func() {
			b := make([]byte, 4096)
			n, err := s.stdout.Read(b)
			reads <- chunk{data: b[:n], err: err}
		}()

		select {
		case <-deadlineCtx.Done():
			return buf.String(), collectorerr.New(collectorerr.Timeout, "timed out waiting for device prompt")
		case r := <-reads:
			if len(r.data) > 0 {
				buf.Write(r.data)
				if s.driver.PromptRegex.Match(buf.Bytes()) {
					return buf.String(), nil
				}
			}
			if r.err != nil {
				if r.err == io.EOF {
					return buf.String(), collectorerr.Wrap(collectorerr.TransportError, "connection closed", r.err)
				}
				return buf.String(), collectorerr.Wrap(collectorerr.CommandError, "read from device", r.err)
			}
		}
	}
}

func (s *sshDeviceSession) Close() error {
	s.session.Close()
	return s.client.Close()
}
