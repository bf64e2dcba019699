package types

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MinOptions is the minimum number of options a poll can be created with.
	MinOptions = 2
	// MaxOptions is the maximum number of options a poll can be created with.
	MaxOptions = 10
	// MaxCommentsPerVoter is the maximum number of encrypted comments a
	// single commitment may attach to a poll.
	MaxCommentsPerVoter = 5
	// CommitmentSize is the byte length of a voter commitment.
	CommitmentSize = 32
	// DefaultPageSize is the page size used by paged listings when the
	// caller does not provide one.
	DefaultPageSize = 50
	// MaxPageSize caps the page size of paged listings.
	MaxPageSize = 200
)

// PollStatus is the externally visible lifecycle stage of a poll, derived
// from its latches and time window.
type PollStatus uint8

const (
	PollStatusUpcoming PollStatus = iota // before startTime
	PollStatusActive                     // open for votes and comments
	PollStatusClosed                     // closed, tallies still encrypted
	PollStatusRevealed                   // disclosed counts available

	PollStatusUpcomingName = "upcoming"
	PollStatusActiveName   = "active"
	PollStatusClosedName   = "closed"
	PollStatusRevealedName = "revealed"
)

func (s PollStatus) String() string {
	switch s {
	case PollStatusUpcoming:
		return PollStatusUpcomingName
	case PollStatusActive:
		return PollStatusActiveName
	case PollStatusClosed:
		return PollStatusClosedName
	case PollStatusRevealed:
		return PollStatusRevealedName
	default:
		return "unknown"
	}
}

// Option is a single poll choice. The option content and its image are
// opaque ciphertext blobs supplied by the creator; Tally is the homomorphic
// accumulator handle that only ever grows by ciphertext addition.
type Option struct {
	Encrypted      HexBytes `json:"encryptedOption"      cbor:"0,keyasint,omitempty"`
	EncryptedImage HexBytes `json:"encryptedOptionImage" cbor:"1,keyasint,omitempty"`
	Tally          HexBytes `json:"encryptedVoteCount"   cbor:"2,keyasint,omitempty"`
}

// Poll is the full record kept by the poll store. Poll ids are assigned
// monotonically and never reused. The option list length is fixed at
// creation. Active is a cached derivative of the time window: it
// self-corrects to false on the first write attempt past EndTime.
type Poll struct {
	ID              uint64         `json:"id"              cbor:"0,keyasint"`
	Creator         common.Address `json:"creator"         cbor:"1,keyasint"`
	Question        HexBytes       `json:"question"        cbor:"2,keyasint,omitempty"`
	QuestionImage   HexBytes       `json:"questionImage"   cbor:"3,keyasint,omitempty"`
	Options         []Option       `json:"options"         cbor:"4,keyasint"`
	CommentsAllowed bool           `json:"commentsAllowed" cbor:"5,keyasint,omitempty"`
	StartTime       time.Time      `json:"startTime"       cbor:"6,keyasint"`
	EndTime         time.Time      `json:"endTime"         cbor:"7,keyasint"`
	Active          bool           `json:"isActive"        cbor:"8,keyasint"`
	RevealRequested bool           `json:"revealRequested" cbor:"9,keyasint,omitempty"`
	Revealed        bool           `json:"revealed"        cbor:"10,keyasint,omitempty"`
	// RevealedVoteCounts holds one disclosed count per option. It is
	// populated exactly once and never rewritten.
	RevealedVoteCounts []*BigInt `json:"revealedVoteCounts,omitempty" cbor:"11,keyasint,omitempty"`
	VoteCount          uint64    `json:"voteCount"       cbor:"12,keyasint,omitempty"`
	// RevealProofs are the per-option decryption proofs, present when the
	// reveal was produced by the node finalizer.
	RevealProofs []HexBytes `json:"revealProofs,omitempty" cbor:"13,keyasint,omitempty"`
}

// Clone returns a copy of the poll whose option and count slices do not
// alias the receiver.
func (p *Poll) Clone() *Poll {
	clone := *p
	clone.Options = append([]Option(nil), p.Options...)
	clone.RevealedVoteCounts = append([]*BigInt(nil), p.RevealedVoteCounts...)
	clone.RevealProofs = append([]HexBytes(nil), p.RevealProofs...)
	return &clone
}

// Status derives the lifecycle stage of the poll at the given time.
func (p *Poll) Status(now time.Time) PollStatus {
	switch {
	case p.Revealed:
		return PollStatusRevealed
	case !p.Active || now.After(p.EndTime):
		return PollStatusClosed
	case now.Before(p.StartTime):
		return PollStatusUpcoming
	default:
		return PollStatusActive
	}
}

func (p *Poll) String() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(data)
}

// PollSummary is the projection of a Poll returned by the read accessors.
// It omits the per-commitment state kept under separate storage prefixes.
type PollSummary struct {
	ID                 uint64         `json:"id"`
	Creator            common.Address `json:"creator"`
	Question           HexBytes       `json:"question"`
	QuestionImage      HexBytes       `json:"questionImage,omitempty"`
	OptionCount        int            `json:"optionCount"`
	CommentsAllowed    bool           `json:"commentsAllowed"`
	StartTime          time.Time      `json:"startTime"`
	EndTime            time.Time      `json:"endTime"`
	Status             string         `json:"status"`
	RevealRequested    bool           `json:"revealRequested"`
	Revealed           bool           `json:"revealed"`
	RevealedVoteCounts []*BigInt      `json:"revealedVoteCounts,omitempty"`
	VoteCount          uint64         `json:"voteCount"`
}

// Summary builds the read-only projection of the poll at the given time.
func (p *Poll) Summary(now time.Time) *PollSummary {
	return &PollSummary{
		ID:                 p.ID,
		Creator:            p.Creator,
		Question:           p.Question,
		QuestionImage:      p.QuestionImage,
		OptionCount:        len(p.Options),
		CommentsAllowed:    p.CommentsAllowed,
		StartTime:          p.StartTime,
		EndTime:            p.EndTime,
		Status:             p.Status(now).String(),
		RevealRequested:    p.RevealRequested,
		Revealed:           p.Revealed,
		RevealedVoteCounts: p.RevealedVoteCounts,
		VoteCount:          p.VoteCount,
	}
}

// ValidCommitment reports whether c has the exact commitment length.
func ValidCommitment(c HexBytes) bool {
	return len(c) == CommitmentSize
}
