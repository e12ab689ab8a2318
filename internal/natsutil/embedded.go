package natsutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedOptions configures an in-process NATS server.
type EmbeddedOptions struct {
	// Host to bind (default "127.0.0.1").
	Host string

	// Port to bind; -1 picks a random free port.
	Port int

	// StoreDir persists JetStream data; empty keeps a temporary store.
	StoreDir string

	// Logging enables server logs.
	Logging bool

	// ReadyTimeout bounds startup (default 10s).
	ReadyTimeout time.Duration
}

// StartEmbedded starts an in-process NATS server with JetStream and connects to it.
//
// The caller owns both returned values: close the connection, then shut the server down.
//
// Parameters:
//   - opts: Server options
//
// Returns:
//   - *server.Server: Running NATS server
//   - *nats.Conn: Client connection to the server
//   - error: Error if startup fails
func StartEmbedded(opts EmbeddedOptions) (*server.Server, *nats.Conn, error) {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = -1
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 10 * time.Second
	}

	ns, err := server.NewServer(&server.Options{
		Host:      opts.Host,
		Port:      opts.Port,
		JetStream: true,
		StoreDir:  opts.StoreDir,
		NoLog:     !opts.Logging,
		NoSigs:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS server: %w", err)
	}
	if opts.Logging {
		ns.ConfigureLogger()
	}

	go ns.Start()

	if !ns.ReadyForConnections(opts.ReadyTimeout) {
		ns.Shutdown()
		return nil, nil, errors.New("NATS server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return ns, nc, nil
}
