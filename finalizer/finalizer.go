// Package finalizer drives the node-side reveal protocol: it listens for
// reveal requests, decrypts the tally handles of the affected polls through
// the confidential capability and finalizes the results on the ledger.
package finalizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/types"
)

const (
	failbackMaxValue = 2 << 24 // 2^25, search bound when a poll has no usable vote count
)

// Finalizer is responsible for revealing polls whose reveal was requested.
type Finalizer struct {
	ldg        *ledger.Ledger
	revealer   confidential.Revealer
	OndemandCh chan uint64
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// New creates a new Finalizer instance. The revealer must be the decrypting
// side of the capability the ledger accumulates with.
func New(ldg *ledger.Ledger, revealer confidential.Revealer) *Finalizer {
	return &Finalizer{
		ldg:        ldg,
		revealer:   revealer,
		OndemandCh: make(chan uint64, 10), // buffered to keep the reveal hook non-blocking
	}
}

// Start starts the finalizer. It listens for poll identifiers on the
// OndemandCh channel, and when monitorInterval is nonzero it also
// periodically sweeps for reveal-requested polls missed across restarts.
func (f *Finalizer) Start(ctx context.Context, monitorInterval time.Duration) {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case pollID := <-f.OndemandCh:
				if err := f.reveal(pollID); err != nil {
					log.Errorw(err, fmt.Sprintf("revealing poll %d", pollID))
				}
			case <-f.ctx.Done():
				return
			}
		}
	}()

	if monitorInterval > 0 {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			ticker := time.NewTicker(monitorInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					f.sweepRequested()
				case <-f.ctx.Done():
					return
				}
			}
		}()
	}

	log.Infow("finalizer started successfully")
}

// Close gracefully shuts down the finalizer and waits for its goroutines to
// exit. It should be called before closing the storage.
func (f *Finalizer) Close() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.cancel = nil

	waitCh := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
		log.Infow("finalizer closed successfully")
	case <-time.After(5 * time.Second):
		log.Warnw("some finalizer goroutines did not exit cleanly")
	}
}

// sweepRequested enqueues every poll with a pending reveal request. It
// covers requests latched before a crash or while the finalizer was down.
func (f *Finalizer) sweepRequested() {
	ids, err := f.ldg.Storage().ListPolls()
	if err != nil {
		log.Errorw(err, "could not list polls")
		return
	}
	for _, id := range ids {
		poll, err := f.ldg.Storage().Poll(id)
		if err != nil {
			log.Errorw(err, fmt.Sprintf("could not retrieve poll %d", id))
			continue
		}
		if poll.RevealRequested && !poll.Revealed {
			log.Debugw("found poll with pending reveal", "pollID", id)
			select {
			case f.OndemandCh <- id:
			default:
				log.Warnw("ondemand channel full, poll left for next sweep", "pollID", id)
			}
		}
	}
}

// reveal decrypts every option tally of the poll and finalizes the results
// on the ledger.
func (f *Finalizer) reveal(pollID uint64) error {
	log.Debugw("revealing poll", "pollID", pollID)
	poll, err := f.ldg.Storage().Poll(pollID)
	if err != nil {
		return err
	}
	if !poll.RevealRequested {
		return fmt.Errorf("poll %d has no pending reveal request", pollID)
	}
	if poll.Revealed {
		return fmt.Errorf("poll %d already revealed", pollID)
	}

	// bound the discrete log search by the maximum possible tally
	maxValue := poll.VoteCount * f.ldg.MaxVoteWeight()
	if maxValue == 0 {
		maxValue = failbackMaxValue
	}

	proofRevealer, withProofs := f.revealer.(confidential.ProofRevealer)
	counts := make([]*types.BigInt, len(poll.Options))
	var proofs []types.HexBytes
	if withProofs {
		proofs = make([]types.HexBytes, len(poll.Options))
	}
	// each tally decryption runs its own dlog search, do them in parallel
	startTime := time.Now()
	g := new(errgroup.Group)
	for i, opt := range poll.Options {
		g.Go(func() error {
			if withProofs {
				value, proof, err := proofRevealer.RevealWithProof(pollID, opt.Tally, maxValue)
				if err != nil {
					return fmt.Errorf("could not reveal tally %d of poll %d: %w", i, pollID, err)
				}
				counts[i] = new(types.BigInt).SetUint64(value)
				proofs[i] = proof
				return nil
			}
			value, err := f.revealer.Reveal(pollID, opt.Tally, maxValue)
			if err != nil {
				return fmt.Errorf("could not reveal tally %d of poll %d: %w", i, pollID, err)
			}
			counts[i] = new(types.BigInt).SetUint64(value)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Debugw("decrypted tallies", "pollID", pollID,
		"duration", time.Since(startTime).String(), "counts", counts)

	if err := f.ldg.FinalizeReveal(pollID, counts, proofs); err != nil {
		return fmt.Errorf("could not finalize poll %d: %w", pollID, err)
	}
	log.Infow("revealed poll", "pollID", pollID, "counts", counts)
	return nil
}

// WaitUntilRevealed waits until the poll is revealed and returns its
// disclosed counts.
func (f *Finalizer) WaitUntilRevealed(ctx context.Context, pollID uint64) ([]*types.BigInt, error) {
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	log.Debugw("waiting for poll to be revealed", "pollID", pollID)
	for {
		select {
		case <-ticker.C:
			poll, err := f.ldg.Storage().Poll(pollID)
			if err != nil {
				return nil, fmt.Errorf("could not retrieve poll %d: %w", pollID, err)
			}
			if poll.Revealed {
				return poll.RevealedVoteCounts, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for poll %d to be revealed: %w", pollID, ctx.Err())
		}
	}
}
