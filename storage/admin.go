package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/types"
)

var adminStateKey = []byte("state")

// AdminState holds the node administration record: the owner address, the
// pause latch and the poll creation fee accounting.
type AdminState struct {
	Owner         common.Address `json:"owner"         cbor:"0,keyasint"`
	Paused        bool           `json:"paused"        cbor:"1,keyasint,omitempty"`
	CreationFee   *types.BigInt  `json:"creationFee"   cbor:"2,keyasint,omitempty"`
	CollectedFees *types.BigInt  `json:"collectedFees" cbor:"3,keyasint,omitempty"`
}

// AdminState retrieves the administration record. A zero-value record is
// returned when none has been stored yet.
func (s *Storage) AdminState() (*AdminState, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.adminStateUnsafe()
}

func (s *Storage) adminStateUnsafe() (*AdminState, error) {
	a := &AdminState{}
	if err := s.getArtifact(adminPrefix, adminStateKey, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &AdminState{
				CreationFee:   types.NewInt(0),
				CollectedFees: types.NewInt(0),
			}, nil
		}
		return nil, err
	}
	if a.CreationFee == nil {
		a.CreationFee = types.NewInt(0)
	}
	if a.CollectedFees == nil {
		a.CollectedFees = types.NewInt(0)
	}
	return a, nil
}

// UpdateAdminState performs an atomic read-modify-write operation on the
// administration record.
func (s *Storage) UpdateAdminState(updateFunc func(*AdminState) error) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	a, err := s.adminStateUnsafe()
	if err != nil {
		return fmt.Errorf("failed to get admin state for update: %w", err)
	}
	if err := updateFunc(a); err != nil {
		return fmt.Errorf("update function failed: %w", err)
	}
	return s.setArtifact(adminPrefix, adminStateKey, a)
}
