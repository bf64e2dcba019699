// Package admin implements node administration: ownership, the pause latch
// over poll creation, and creation fee accounting.
package admin

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

// Admin wraps the persisted administration record with owner-gated
// operations.
type Admin struct {
	stg *storage.Storage
}

// New creates an Admin over the given storage.
func New(stg *storage.Storage) *Admin {
	return &Admin{stg: stg}
}

// State returns the current administration record.
func (a *Admin) State() (*storage.AdminState, error) {
	return a.stg.AdminState()
}

// InitOwner bootstraps the node owner. It only succeeds while no owner has
// been set.
func (a *Admin) InitOwner(owner common.Address) error {
	if owner == (common.Address{}) {
		return fmt.Errorf("%w: zero owner address", types.ErrValidation)
	}
	return a.stg.UpdateAdminState(func(s *storage.AdminState) error {
		if s.Owner != (common.Address{}) && s.Owner != owner {
			return fmt.Errorf("%w: owner already set", types.ErrState)
		}
		s.Owner = owner
		return nil
	})
}

// TransferOwnership hands the node over to a new owner.
func (a *Admin) TransferOwnership(caller, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: zero owner address", types.ErrValidation)
	}
	return a.stg.UpdateAdminState(func(s *storage.AdminState) error {
		if err := requireOwner(s, caller); err != nil {
			return err
		}
		s.Owner = newOwner
		return nil
	})
}

// SetPaused toggles the poll creation pause latch. Owner only.
func (a *Admin) SetPaused(caller common.Address, paused bool) error {
	err := a.stg.UpdateAdminState(func(s *storage.AdminState) error {
		if err := requireOwner(s, caller); err != nil {
			return err
		}
		s.Paused = paused
		return nil
	})
	if err == nil {
		log.Infow("pause latch updated", "paused", paused, "caller", caller.Hex())
	}
	return err
}

// SetCreationFee updates the fee charged on poll creation. Owner only.
func (a *Admin) SetCreationFee(caller common.Address, fee *types.BigInt) error {
	if fee == nil || fee.MathBigInt().Sign() < 0 {
		return fmt.Errorf("%w: invalid creation fee", types.ErrValidation)
	}
	return a.stg.UpdateAdminState(func(s *storage.AdminState) error {
		if err := requireOwner(s, caller); err != nil {
			return err
		}
		s.CreationFee = fee
		return nil
	})
}

// Withdraw drains the collected fees to the owner and returns the amount.
func (a *Admin) Withdraw(caller common.Address) (*types.BigInt, error) {
	var amount *types.BigInt
	err := a.stg.UpdateAdminState(func(s *storage.AdminState) error {
		if err := requireOwner(s, caller); err != nil {
			return err
		}
		amount = s.CollectedFees
		s.CollectedFees = types.NewInt(0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infow("fees withdrawn", "amount", amount, "caller", caller.Hex())
	return amount, nil
}

func requireOwner(s *storage.AdminState, caller common.Address) error {
	if s.Owner == (common.Address{}) {
		return fmt.Errorf("%w: no owner configured", types.ErrState)
	}
	if s.Owner != caller {
		return fmt.Errorf("%w: caller is not the owner", types.ErrAuthorization)
	}
	return nil
}
