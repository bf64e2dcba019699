package types

import "time"

// Comment is an encrypted remark attached to a poll by a voter. Authorship
// is tied to the voter commitment, not to an address, so comments stay as
// anonymous as the vote they are gated on.
type Comment struct {
	Index      uint64    `json:"index"         cbor:"0,keyasint"`
	Commitment HexBytes  `json:"commitment"    cbor:"1,keyasint"`
	Body       HexBytes  `json:"encryptedBody" cbor:"2,keyasint"`
	Time       time.Time `json:"time"          cbor:"3,keyasint"`
}
