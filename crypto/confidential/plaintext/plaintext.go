// Package plaintext implements the confidential value capability without
// encryption: handles carry the value itself as 8 big-endian bytes, and the
// ingestion proof is a digest over the payload and its binding. It exists to
// exercise the ledger state machine in tests without the cost of the
// elgamal scheme.
package plaintext

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/types"
)

// Scheme is a capability whose handles are plain uint64 values.
type Scheme struct {
	aclMu sync.Mutex
	acl   map[[sha256.Size]byte]map[common.Address]struct{}
}

var (
	_ confidential.Capability = (*Scheme)(nil)
	_ confidential.Revealer   = (*Scheme)(nil)
)

// NewScheme creates a plaintext capability.
func NewScheme() *Scheme {
	return &Scheme{acl: make(map[[sha256.Size]byte]map[common.Address]struct{})}
}

// Zero returns a handle to the value 0.
func (s *Scheme) Zero(_ uint64) (types.HexBytes, error) {
	return encode(0), nil
}

// Ingest checks that proof is the binding digest of payload and returns the
// payload as handle.
func (s *Scheme) Ingest(binding confidential.Binding, payload, proof []byte) (types.HexBytes, error) {
	if len(payload) != 8 {
		return nil, fmt.Errorf("%w: payload must be 8 bytes", confidential.ErrProofVerification)
	}
	expected := Prove(binding, payload)
	if !bytes.Equal(proof, expected) {
		return nil, confidential.ErrProofVerification
	}
	return types.HexBytes(payload), nil
}

// Add returns a handle to the sum of the two handles.
func (s *Scheme) Add(_ uint64, a, b types.HexBytes) (types.HexBytes, error) {
	va, err := decode(a)
	if err != nil {
		return nil, err
	}
	vb, err := decode(b)
	if err != nil {
		return nil, err
	}
	return encode(va + vb), nil
}

// GrantAccess records that grantee may read the value behind handle.
func (s *Scheme) GrantAccess(handle types.HexBytes, grantee common.Address) error {
	key := sha256.Sum256(handle)
	s.aclMu.Lock()
	defer s.aclMu.Unlock()
	grants, ok := s.acl[key]
	if !ok {
		grants = make(map[common.Address]struct{})
		s.acl[key] = grants
	}
	grants[grantee] = struct{}{}
	return nil
}

// HasAccess reports whether addr has been granted access to handle.
func (s *Scheme) HasAccess(handle types.HexBytes, addr common.Address) bool {
	key := sha256.Sum256(handle)
	s.aclMu.Lock()
	defer s.aclMu.Unlock()
	_, ok := s.acl[key][addr]
	return ok
}

// Reveal returns the value behind the handle. The handle must carry at
// least one access grant.
func (s *Scheme) Reveal(pollID uint64, handle types.HexBytes, max uint64) (uint64, error) {
	key := sha256.Sum256(handle)
	s.aclMu.Lock()
	granted := len(s.acl[key]) > 0
	s.aclMu.Unlock()
	if !granted {
		return 0, fmt.Errorf("%w: no grant for handle on poll %d", confidential.ErrAccessDenied, pollID)
	}
	v, err := decode(handle)
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, fmt.Errorf("value %d outside search interval [0,%d]", v, max)
	}
	return v, nil
}

// Payload encodes a value as an ingestable payload.
func Payload(value uint64) types.HexBytes {
	return encode(value)
}

// Prove builds the proof expected by Ingest for payload under binding.
func Prove(binding confidential.Binding, payload []byte) types.HexBytes {
	h := sha256.New()
	h.Write(binary.BigEndian.AppendUint64(nil, binding.PollID))
	h.Write(binding.Commitment)
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(binding.OptionIndex)))
	h.Write(payload)
	return h.Sum(nil)
}

func encode(v uint64) types.HexBytes {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decode(handle types.HexBytes) (uint64, error) {
	if len(handle) != 8 {
		return 0, fmt.Errorf("malformed handle: %d bytes", len(handle))
	}
	return binary.BigEndian.Uint64(handle), nil
}
