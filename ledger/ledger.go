// Package ledger implements the poll state machine: lifecycle management,
// commitment-based vote accounting on encrypted tallies, gated encrypted
// comments and the two-step reveal protocol. All mutating operations are
// serialized through a single lock, so the storage below only ever sees one
// writer.
package ledger

import (
	"sync"
	"time"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/storage"
)

// RevealProfile selects which of the two reveal protocols the node runs.
type RevealProfile string

const (
	// RevealProfileFinalizer enables the event-driven protocol: the
	// creator requests a reveal and the node finalizer decrypts the
	// tallies itself.
	RevealProfileFinalizer RevealProfile = "finalizer"
	// RevealProfileSubmission enables the submission protocol: the
	// creator decrypts off-node and submits the disclosed counts.
	RevealProfileSubmission RevealProfile = "submission"
)

// Valid reports whether the profile names a known reveal protocol.
func (p RevealProfile) Valid() bool {
	return p == RevealProfileFinalizer || p == RevealProfileSubmission
}

// Config tunes a Ledger instance.
type Config struct {
	// RevealProfile selects the reveal protocol. Defaults to the
	// finalizer profile.
	RevealProfile RevealProfile
	// MaxVoteWeight is the per-vote weight bound assumed when searching
	// the decryption space of a tally. Zero means DefaultMaxVoteWeight.
	MaxVoteWeight uint64
}

// DefaultMaxVoteWeight is the assumed per-vote weight bound when the
// config does not set one. It keeps the disclosed tallies inside the
// search interval of the decryption.
const DefaultMaxVoteWeight = 1 << 16

// Ledger is the single-writer poll state machine over a storage backend and
// a confidential value capability.
type Ledger struct {
	stg *storage.Storage
	cap confidential.Capability

	mu            sync.Mutex
	revealProfile RevealProfile
	maxVoteWeight uint64

	// now is the time source, replaceable in tests.
	now func() time.Time

	// revealHook is invoked after a reveal request has been latched, with
	// the ledger lock released.
	revealHook func(pollID uint64)

	subsMu sync.Mutex
	subs   map[string]chan Event
}

// New creates a Ledger over the given storage and capability.
func New(stg *storage.Storage, capability confidential.Capability, cfg Config) *Ledger {
	profile := cfg.RevealProfile
	if profile == "" {
		profile = RevealProfileFinalizer
	}
	maxWeight := cfg.MaxVoteWeight
	if maxWeight == 0 {
		maxWeight = DefaultMaxVoteWeight
	}
	return &Ledger{
		stg:           stg,
		cap:           capability,
		revealProfile: profile,
		maxVoteWeight: maxWeight,
		now:           time.Now,
		subs:          make(map[string]chan Event),
	}
}

// RevealProfile returns the reveal protocol the ledger runs.
func (l *Ledger) RevealProfile() RevealProfile {
	return l.revealProfile
}

// MaxVoteWeight returns the assumed per-vote weight bound.
func (l *Ledger) MaxVoteWeight() uint64 {
	return l.maxVoteWeight
}

// Storage exposes the underlying storage, mainly for the finalizer and the
// API read paths.
func (l *Ledger) Storage() *storage.Storage {
	return l.stg
}

// SetRevealHook installs the callback fired when a reveal request is
// latched. The finalizer wires its on-demand channel here.
func (l *Ledger) SetRevealHook(hook func(pollID uint64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revealHook = hook
}

// SetTimeSource replaces the ledger clock. Intended for tests.
func (l *Ledger) SetTimeSource(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
