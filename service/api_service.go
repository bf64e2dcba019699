// Package service wraps the node components as start/stoppable services for
// the command line entrypoint.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Wizbisy/anonpoll/admin"
	"github.com/Wizbisy/anonpoll/api"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/log"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	ledger *ledger.Ledger
	admin  *admin.Admin
	API    *api.API
	mu     sync.Mutex
	cancel context.CancelFunc
	host   string
	port   int
}

// NewAPI creates a new APIService instance.
func NewAPI(ldg *ledger.Ledger, adm *admin.Admin, host string, port int, disableLogging bool) *APIService {
	if disableLogging {
		api.DisabledLogging = disableLogging
		log.Debugw("API logging is disabled")
	}
	return &APIService{
		ledger: ldg,
		admin:  adm,
		host:   host,
		port:   port,
	}
}

// Start begins the API server. It returns an error if the service is
// already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}
	_, as.cancel = context.WithCancel(ctx)

	var err error
	as.API, err = api.New(&api.APIConfig{
		Host:   as.host,
		Port:   as.port,
		Ledger: as.ledger,
		Admin:  as.admin,
	})
	if err != nil {
		as.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop halts the API server.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}
