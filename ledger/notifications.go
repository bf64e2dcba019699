package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/types"
)

// EventType identifies a ledger state transition.
type EventType string

const (
	EventPollCreated      EventType = "pollCreated"
	EventMetadataUpdated  EventType = "metadataUpdated"
	EventVoteCast         EventType = "voteCast"
	EventPollClosed       EventType = "pollClosed"
	EventRevealRequested  EventType = "revealRequested"
	EventResultsFinalized EventType = "resultsFinalized"
	EventCommentAdded     EventType = "commentAdded"
)

// Event is a ledger notification. Events are best-effort: a subscriber that
// does not drain its channel misses events rather than blocking the writer.
// Commitment and OptionIndex are set on voteCast events only; the weight is
// never carried.
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	PollID      uint64         `json:"pollId"`
	Commitment  types.HexBytes `json:"commitment,omitempty"`
	OptionIndex int            `json:"optionIndex,omitempty"`
	Time        time.Time      `json:"time"`
}

// Subscribe registers a new event subscriber. The returned cancel function
// must be called to release the subscription.
func (l *Ledger) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, 32)

	l.subsMu.Lock()
	l.subs[id] = ch
	l.subsMu.Unlock()

	cancel := func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify fans an event out to all subscribers without blocking.
func (l *Ledger) notify(typ EventType, pollID uint64) {
	l.publish(Event{
		ID:     uuid.NewString(),
		Type:   typ,
		PollID: pollID,
		Time:   l.now(),
	})
}

// notifyVote emits a voteCast event carrying the commitment and the chosen
// option, so subscribers can react to individual votes.
func (l *Ledger) notifyVote(pollID uint64, commitment types.HexBytes, optionIndex int) {
	l.publish(Event{
		ID:          uuid.NewString(),
		Type:        EventVoteCast,
		PollID:      pollID,
		Commitment:  commitment,
		OptionIndex: optionIndex,
		Time:        l.now(),
	})
}

func (l *Ledger) publish(event Event) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	for id, ch := range l.subs {
		select {
		case ch <- event:
		default:
			log.Debugw("dropping event for slow subscriber",
				"subscriber", id, "event", string(event.Type), "pollID", event.PollID)
		}
	}
}
