// Package credential resolves the secret each device should use and runs
// the out-of-band discovery probe that determines which candidate secret
// actually authenticates against a device.
//
// Cache decrypts every credential row once per vault unlock and holds the
// plaintext in memory for the process lifetime; Resolver implements the
// four-step resolution chain; Run (discovery.go) implements the connect-only
// bulk probe. Run depends on a Prober interface rather than pkg/sshexec
// directly so this package never imports the transport layer — the CLI
// wires a concrete prober in at startup.
package credential
