package elgamal

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/crypto/ecc"
	"github.com/Wizbisy/anonpoll/types"
)

// KeyStore provides the per-poll ElGamal key material to the scheme. It is
// implemented by the storage layer, which generates a key pair when a poll
// is created.
type KeyStore interface {
	EncryptionKey(pollID uint64) (ecc.Point, error)
	DecryptionKey(pollID uint64) (*big.Int, error)
}

// Scheme implements the confidential value capability over exponent ElGamal
// ciphertexts. Handles are serialized ciphertexts.
type Scheme struct {
	curve ecc.Point
	keys  KeyStore

	aclMu sync.Mutex
	acl   map[[sha256.Size]byte]map[common.Address]struct{}
}

var (
	_ confidential.Capability    = (*Scheme)(nil)
	_ confidential.Revealer      = (*Scheme)(nil)
	_ confidential.ProofRevealer = (*Scheme)(nil)
)

// NewScheme creates a Scheme on the given curve, backed by keys.
func NewScheme(curve ecc.Point, keys KeyStore) *Scheme {
	return &Scheme{
		curve: curve,
		keys:  keys,
		acl:   make(map[[sha256.Size]byte]map[common.Address]struct{}),
	}
}

// Zero returns a handle to the additive identity ciphertext.
func (s *Scheme) Zero(_ uint64) (types.HexBytes, error) {
	return NewCiphertext(s.curve).Serialize()
}

// Ingest verifies the Schnorr nonce proof carried with an externally
// encrypted payload and returns a handle to it. The proof challenge is bound
// to the poll, the voter commitment and the option index, so a payload
// cannot be replayed into a different slot.
func (s *Scheme) Ingest(binding confidential.Binding, payload, proof []byte) (types.HexBytes, error) {
	publicKey, err := s.keys.EncryptionKey(binding.PollID)
	if err != nil {
		return nil, fmt.Errorf("could not load encryption key: %w", err)
	}
	ct, err := DeserializeCiphertext(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", confidential.ErrProofVerification, err)
	}
	ip, err := DeserializeIngestionProof(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", confidential.ErrProofVerification, err)
	}
	if err := VerifyIngestionProof(publicKey, ct, *ip, BindingScalars(binding, publicKey.Order())...); err != nil {
		return nil, fmt.Errorf("%w: %v", confidential.ErrProofVerification, err)
	}
	return ct.Serialize()
}

// Add returns a handle to the homomorphic sum of the two handles.
func (s *Scheme) Add(_ uint64, a, b types.HexBytes) (types.HexBytes, error) {
	ca, err := DeserializeCiphertext(a)
	if err != nil {
		return nil, err
	}
	cb, err := DeserializeCiphertext(b)
	if err != nil {
		return nil, err
	}
	return new(Ciphertext).Add(ca, cb).Serialize()
}

// GrantAccess records that grantee may read the value behind handle. The
// grant set is consulted by HasAccess.
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

func (s *Scheme) granted(handle types.HexBytes) bool {
	key := sha256.Sum256(handle)
	s.aclMu.Lock()
	defer s.aclMu.Unlock()
	return len(s.acl[key]) > 0
}

// Reveal decrypts the handle with the poll's private key and returns the
// plaintext, searched in [0,max]. The handle must carry at least one access
// grant, issued through GrantAccess when the reveal was requested.
func (s *Scheme) Reveal(pollID uint64, handle types.HexBytes, max uint64) (uint64, error) {
	value, _, err := s.reveal(pollID, handle, max, false)
	return value, err
}

// RevealWithProof decrypts the handle and additionally returns a serialized
// Chaum-Pedersen proof of correct decryption.
func (s *Scheme) RevealWithProof(pollID uint64, handle types.HexBytes, max uint64) (uint64, types.HexBytes, error) {
	return s.reveal(pollID, handle, max, true)
}

func (s *Scheme) reveal(pollID uint64, handle types.HexBytes, max uint64, withProof bool) (uint64, types.HexBytes, error) {
	if !s.granted(handle) {
		return 0, nil, fmt.Errorf("%w: no grant for handle on poll %d", confidential.ErrAccessDenied, pollID)
	}
	publicKey, err := s.keys.EncryptionKey(pollID)
	if err != nil {
		return 0, nil, fmt.Errorf("could not load encryption key: %w", err)
	}
	privateKey, err := s.keys.DecryptionKey(pollID)
	if err != nil {
		return 0, nil, fmt.Errorf("could not load decryption key: %w", err)
	}
	ct, err := DeserializeCiphertext(handle)
	if err != nil {
		return 0, nil, err
	}
	if ct.IsZero() {
		// the identity decrypts to zero, skip the dlog search
		if !withProof {
			return 0, nil, nil
		}
	}
	_, msg, err := Decrypt(publicKey, privateKey, ct.C1, ct.C2, max)
	if err != nil {
		return 0, nil, err
	}
	if !withProof {
		return msg.Uint64(), nil, nil
	}
	proof, err := BuildDecryptionProof(privateKey, publicKey, ct.C1, ct.C2, msg)
	if err != nil {
		return 0, nil, err
	}
	serialized, err := proof.Serialize()
	if err != nil {
		return 0, nil, err
	}
	return msg.Uint64(), serialized, nil
}

// BindingScalars folds an ingestion binding into field scalars suitable as
// Fiat-Shamir challenge inputs.
func BindingScalars(b confidential.Binding, order *big.Int) []*big.Int {
	commitment := new(big.Int).SetBytes(b.Commitment)
	return []*big.Int{
		new(big.Int).SetUint64(b.PollID),
		commitment.Mod(commitment, order),
		big.NewInt(int64(b.OptionIndex)),
	}
}

// EncryptValue encrypts value under the poll public key and builds the
// matching ingestion proof, returning the serialized payload and proof ready
// for Ingest. It is the client side of the capability.
func EncryptValue(publicKey ecc.Point, value uint64, binding confidential.Binding) (payload, proof types.HexBytes, err error) {
	ct := NewCiphertext(publicKey)
	_, k, err := ct.Encrypt(new(big.Int).SetUint64(value), publicKey, nil)
	if err != nil {
		return nil, nil, err
	}
	ip, err := BuildIngestionProof(k, publicKey, ct, BindingScalars(binding, publicKey.Order())...)
	if err != nil {
		return nil, nil, err
	}
	payload, err = ct.Serialize()
	if err != nil {
		return nil, nil, err
	}
	proof, err = ip.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return payload, proof, nil
}
