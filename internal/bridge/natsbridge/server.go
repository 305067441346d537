// Package natsbridge is an alternative, out-of-process transport for
// dispatched events — for a UI that lives in a separate process or
// machine from the core. It embeds a NATS server for zero-config local
// use; the core itself remains single-process by default (see §5).
package natsbridge

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServerConfig configures the in-process NATS broker.
type EmbeddedServerConfig struct {
	Port      int
	JetStream bool
	DataDir   string
}

// EmbeddedServer wraps an in-process nats-server instance.
type EmbeddedServer struct {
	mu      sync.Mutex
	srv     *server.Server
	config  EmbeddedServerConfig
	running bool
}

// NewEmbeddedServer validates config and returns an unstarted server.
func NewEmbeddedServer(config EmbeddedServerConfig) (*EmbeddedServer, error) {
	if config.Port == 0 {
		config.Port = 4222
	}
	if config.JetStream && config.DataDir == "" {
		return nil, fmt.Errorf("natsbridge: data dir required when jetstream is enabled")
	}
	return &EmbeddedServer{config: config}, nil
}

// Start brings the embedded broker up and blocks until it signals ready.
func (e *EmbeddedServer) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("natsbridge: server already running")
	}

	opts := &server.Options{
		Host:       "127.0.0.1",
		Port:       e.config.Port,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	}
	if e.config.JetStream {
		opts.JetStream = true
		opts.StoreDir = e.config.DataDir
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("natsbridge: creating embedded server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(5e9) {
		return fmt.Errorf("natsbridge: embedded server did not become ready")
	}

	e.srv = ns
	e.running = true
	return nil
}

// ClientURL returns the address clients should dial.
func (e *EmbeddedServer) ClientURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.srv == nil {
		return ""
	}
	return e.srv.ClientURL()
}

// Stop shuts the embedded broker down.
func (e *EmbeddedServer) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.srv != nil {
		e.srv.Shutdown()
		e.running = false
	}
}
