package storage

import (
	"fmt"
	"math/big"

	"github.com/Wizbisy/anonpoll/crypto/confidential/elgamal"
	"github.com/Wizbisy/anonpoll/crypto/ecc"
	"github.com/Wizbisy/anonpoll/crypto/ecc/bn254"
	"github.com/Wizbisy/anonpoll/crypto/ecc/curves"
)

// EncryptionKeys is the persisted key material of a poll: the public key
// coordinates and the private scalar used to disclose the tallies.
type EncryptionKeys struct {
	X          *big.Int `cbor:"0,keyasint"`
	Y          *big.Int `cbor:"1,keyasint"`
	PrivateKey *big.Int `cbor:"2,keyasint"`
}

// SetEncryptionKeys stores the encryption keys for a poll.
func (s *Storage) SetEncryptionKeys(pollID uint64, publicKey ecc.Point, privateKey *big.Int) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.setEncryptionKeysUnsafe(pollID, publicKey, privateKey)
}

// EncryptionKeys loads the encryption keys for a poll. Returns ErrNotFound
// if the keys do not exist.
func (s *Storage) EncryptionKeys(pollID uint64) (ecc.Point, *big.Int, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.encryptionKeysUnsafe(pollID)
}

// EncryptionKey implements the key store interface of the confidential
// scheme, returning only the public half of the poll key pair.
func (s *Storage) EncryptionKey(pollID uint64) (ecc.Point, error) {
	publicKey, _, err := s.EncryptionKeys(pollID)
	return publicKey, err
}

// DecryptionKey implements the key store interface of the confidential
// scheme, returning the private scalar of the poll key pair.
func (s *Storage) DecryptionKey(pollID uint64) (*big.Int, error) {
	_, privateKey, err := s.EncryptionKeys(pollID)
	if err != nil {
		return nil, err
	}
	if privateKey == nil {
		return nil, fmt.Errorf("poll %d has no private key", pollID)
	}
	return privateKey, nil
}

// setEncryptionKeysUnsafe stores both halves of the key pair, without
// locking.
func (s *Storage) setEncryptionKeysUnsafe(pollID uint64, publicKey ecc.Point, privateKey *big.Int) error {
	x, y := publicKey.Point()
	eks := &EncryptionKeys{
		X:          x,
		Y:          y,
		PrivateKey: privateKey,
	}
	return s.setArtifact(encryptionKeyPrefix, pollKey(pollID), eks)
}

// encryptionKeysUnsafe loads the encryption keys for a poll without locking.
func (s *Storage) encryptionKeysUnsafe(pollID uint64) (ecc.Point, *big.Int, error) {
	eks := new(EncryptionKeys)
	if err := s.getArtifact(encryptionKeyPrefix, pollKey(pollID), eks); err != nil {
		return nil, nil, err
	}
	if eks.X == nil || eks.Y == nil {
		return nil, nil, fmt.Errorf("not found or malformed encryption keys")
	}
	pubKey := curves.New(bn254.CurveType).SetPoint(eks.X, eks.Y)
	return pubKey, eks.PrivateKey, nil
}

// fetchOrGenerateEncryptionKeysUnsafe loads the encryption keys for a poll,
// generating and persisting a fresh pair when none exist. It does not lock
// the storage, so it should only be called with the global lock held.
func (s *Storage) fetchOrGenerateEncryptionKeysUnsafe(pollID uint64) (ecc.Point, *big.Int, error) {
	publicKey, privateKey, err := s.encryptionKeysUnsafe(pollID)
	if err != nil {
		publicKey, privateKey, err = elgamal.GenerateKey(curves.New(bn254.CurveType))
		if err != nil {
			return nil, nil, fmt.Errorf("could not generate elgamal key: %v", err)
		}
		if err := s.setEncryptionKeysUnsafe(pollID, publicKey, privateKey); err != nil {
			return nil, nil, fmt.Errorf("could not store elgamal key: %v", err)
		}
	}
	return publicKey, privateKey, nil
}
