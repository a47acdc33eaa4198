package domain

import (
	"strconv"
	"time"
)

// AnonymousUserID identifies callers that did not send a user id.
const AnonymousUserID = "anonymous"

// Context keys maintained by the dialogue core.
const (
	ContextKeyLastIntent = "last_intent"
	ContextKeyTurnCount  = "turn_count"
)

// ConversationContext is the mutable per-user state carried across turns.
type ConversationContext map[string]string

// NewConversationContext returns an empty context.
func NewConversationContext() ConversationContext {
	return make(ConversationContext)
}

// Clone returns a copy that shares no storage with c. A nil context clones
// to an empty one.
func (c ConversationContext) Clone() ConversationContext {
	out := make(ConversationContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// LastIntent returns the last recognized intent, or "" if none.
func (c ConversationContext) LastIntent() Intent {
	return Intent(c[ContextKeyLastIntent])
}

// SetLastIntent records the intent chosen for the current turn.
func (c ConversationContext) SetLastIntent(i Intent) {
	c[ContextKeyLastIntent] = string(i)
}

// TurnCount returns the number of completed turns. Malformed values count as zero.
func (c ConversationContext) TurnCount() int {
	n, err := strconv.Atoi(c[ContextKeyTurnCount])
	if err != nil {
		return 0
	}
	return n
}

// IncrementTurnCount bumps the completed-turn counter and returns the new value.
func (c ConversationContext) IncrementTurnCount() int {
	n := c.TurnCount() + 1
	c[ContextKeyTurnCount] = strconv.Itoa(n)
	return n
}

// TurnEvent is published after every completed turn.
type TurnEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Utterance  string    `json:"utterance"`
	Intent     Intent    `json:"intent"`
	Response   string    `json:"response"`
	Language   Language  `json:"language"`
	Translated bool      `json:"translated"`
	TurnNumber int       `json:"turn_number"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Turn is a persisted transcript row.
type Turn struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index"`
	Utterance  string    `json:"utterance"`
	Intent     string    `json:"intent"`
	Response   string    `json:"response"`
	Language   string    `json:"language"`
	Translated bool      `json:"translated"`
	TurnNumber int       `json:"turn_number"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// TurnFromEvent converts a published event into a transcript row.
func TurnFromEvent(ev TurnEvent) Turn {
	return Turn{
		ID:         ev.ID,
		UserID:     ev.UserID,
		Utterance:  ev.Utterance,
		Intent:     string(ev.Intent),
		Response:   ev.Response,
		Language:   string(ev.Language),
		Translated: ev.Translated,
		TurnNumber: ev.TurnNumber,
		CreatedAt:  ev.OccurredAt,
	}
}
