package plaintext

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/types"
)

func TestSchemeCapability(t *testing.T) {
	c := qt.New(t)
	scheme := NewScheme()

	const pollID = 3
	binding := confidential.Binding{
		PollID:      pollID,
		Commitment:  make(types.HexBytes, types.CommitmentSize),
		OptionIndex: 1,
	}

	tally, err := scheme.Zero(pollID)
	c.Assert(err, qt.IsNil)

	payload := Payload(5)
	handle, err := scheme.Ingest(binding, payload, Prove(binding, payload))
	c.Assert(err, qt.IsNil)
	tally, err = scheme.Add(pollID, tally, handle)
	c.Assert(err, qt.IsNil)

	// a proof over a different payload does not verify
	_, err = scheme.Ingest(binding, payload, Prove(binding, Payload(6)))
	c.Assert(err, qt.ErrorIs, confidential.ErrProofVerification)

	// decryption is gated on an access grant
	_, err = scheme.Reveal(pollID, tally, 100)
	c.Assert(err, qt.ErrorIs, confidential.ErrAccessDenied)

	grantee := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	c.Assert(scheme.GrantAccess(tally, grantee), qt.IsNil)
	c.Assert(scheme.HasAccess(tally, grantee), qt.IsTrue)

	value, err := scheme.Reveal(pollID, tally, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(value, qt.Equals, uint64(5))

	// values past the search bound are refused
	_, err = scheme.Reveal(pollID, tally, 4)
	c.Assert(err, qt.Not(qt.IsNil))
}
