package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of an outbound SMS.
type State string

const (
	StateQueued    State = "queued"    // Awaiting dispatch, or awaiting a retry
	StateSent      State = "sent"      // Accepted by the provider, awaiting DLR
	StateDelivered State = "delivered" // Confirmed delivered to the handset (terminal)
	StateFailed    State = "failed"    // Permanently failed (terminal)
)

// Terminal reports whether a state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateFailed
}

// MaxRetries is the retry budget per message. A message that fails with
// RetryCount already at this cap transitions to StateFailed.
const MaxRetries = 3

// Message is the core domain entity: one SMS to one recipient.
type Message struct {
	ID          uuid.UUID
	Destination string // Raw phone number as entered; normalized per provider at send time
	Body        string
	State       State

	// Set by the dispatch engine once a provider accepts the message.
	ProviderID    string // ID of the provider that handled the send
	CorrelationID string // Provider-assigned transaction ID, matched against DLR callbacks

	RawResponse string // Latest raw provider response or callback payload, kept for audit
	LastError   string
	RetryCount  int

	// Optional pointer to the business object this message is about.
	LinkedModel string
	LinkedID    int64

	// PinnedProviderID forces a specific provider, bypassing routing.
	PinnedProviderID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMessage creates a queued Message for a single recipient.
func NewMessage(destination, body string) Message {
	now := time.Now().UTC()
	return Message{
		ID:          uuid.New(),
		Destination: destination,
		Body:        body,
		State:       StateQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Domain errors
var (
	ErrMessageNotFound = errors.New("message not found")
	ErrAlreadyClaimed  = errors.New("message already claimed")
	ErrNoProvider      = errors.New("no active provider found")
	ErrUnsupportedType = errors.New("unsupported provider type")
)
