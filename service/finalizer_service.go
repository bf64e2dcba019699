package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/finalizer"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/log"
)

// FinalizerService represents a service that handles the reveal of polls,
// either on-demand through the ledger reveal hook or by periodic sweep.
type FinalizerService struct {
	*finalizer.Finalizer
	ldg    *ledger.Ledger
	cancel context.CancelFunc
}

// NewFinalizer creates a new finalizer service instance over the ledger and
// the decrypting side of its capability.
func NewFinalizer(ldg *ledger.Ledger, revealer confidential.Revealer) *FinalizerService {
	fs := &FinalizerService{
		Finalizer: finalizer.New(ldg, revealer),
		ldg:       ldg,
	}
	// route reveal requests straight into the finalizer queue
	ldg.SetRevealHook(func(pollID uint64) {
		fs.OndemandCh <- pollID
	})
	return fs
}

// Start begins the finalizer service. The monitorInterval parameter
// specifies how often the service sweeps for pending reveals; if it is 0,
// periodic monitoring is disabled and polls are only revealed on-demand.
// It returns an error if the service is already running.
func (fs *FinalizerService) Start(ctx context.Context, monitorInterval time.Duration) error {
	if fs.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	fs.cancel = cancel

	fs.Finalizer.Start(ctx, monitorInterval)

	log.Infow("finalizer service started", "monitorInterval", monitorInterval)
	return nil
}

// Stop halts the finalizer service.
func (fs *FinalizerService) Stop() {
	if fs.cancel != nil {
		fs.cancel()
		fs.cancel = nil

		// wait for the finalizer goroutines to exit before the caller
		// tears down storage
		if fs.Finalizer != nil {
			fs.Close()
		}

		log.Infow("finalizer service stopped")
	}
}
