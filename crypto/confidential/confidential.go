// Package confidential defines the confidential value capability: an
// interface over opaque handles to encrypted integers that the poll ledger
// uses to accumulate vote weights without ever seeing them in the clear.
//
// A handle is the serialized form of an encrypted value. The ledger treats
// handles as opaque bytes; only a capability implementation can interpret
// them. The reference implementation lives in the elgamal subpackage, and a
// plaintext stub for tests lives in the plaintext subpackage.
package confidential

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/types"
)

// ErrProofVerification is returned by Ingest when the proof attached to an
// external encrypted payload does not verify. Callers must treat the payload
// as hostile and reject the operation that carried it.
var ErrProofVerification = errors.New("proof verification failed")

// ErrAccessDenied is returned by Reveal and RevealWithProof when no access
// grant exists for the handle. A grant is issued through GrantAccess before
// a reveal is attempted.
var ErrAccessDenied = errors.New("access denied")

// Binding ties an ingested payload to the exact slot it is being counted
// for. Implementations must fold every field into the proof challenge, so a
// payload proved for one slot cannot be replayed into another.
type Binding struct {
	PollID      uint64
	Commitment  types.HexBytes
	OptionIndex int
}

// Capability is the confidential value interface. All methods operate on
// opaque serialized handles.
type Capability interface {
	// Zero returns a handle to a fresh encrypted zero, suitable as the
	// initial accumulator of a tally slot.
	Zero(pollID uint64) (types.HexBytes, error)
	// Ingest verifies proof against payload and binding, and on success
	// returns a handle to the encrypted value carried by payload. Returns
	// ErrProofVerification when the proof does not verify.
	Ingest(binding Binding, payload, proof []byte) (types.HexBytes, error)
	// Add returns a handle to the sum of the two encrypted values.
	Add(pollID uint64, a, b types.HexBytes) (types.HexBytes, error)
	// GrantAccess allows grantee to read the value behind handle through
	// whatever decryption facility the implementation provides.
	GrantAccess(handle types.HexBytes, grantee common.Address) error
}

// Revealer is implemented by capabilities that can decrypt a handle held by
// the node itself. max bounds the plaintext search space. Decryption
// requires a prior GrantAccess on the handle; without one the reveal fails
// with ErrAccessDenied.
type Revealer interface {
	Reveal(pollID uint64, handle types.HexBytes, max uint64) (uint64, error)
}

// ProofRevealer is implemented by capabilities that can produce a publicly
// verifiable proof of correct decryption alongside the plaintext.
type ProofRevealer interface {
	RevealWithProof(pollID uint64, handle types.HexBytes, max uint64) (uint64, types.HexBytes, error)
}
