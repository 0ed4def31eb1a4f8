package ports

import (
	"context"

	"sms-dispatch-gateway/internal/domain"
)

// FailureKind classifies why a send did not succeed. The dispatch engine uses
// it to decide between retrying and failing terminally.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureTransport   FailureKind = "transport"   // Network/timeout/connection error; retryable
	FailureRejected    FailureKind = "rejected"    // Provider returned a structured failure; retryable up to the cap
	FailureMalformed   FailureKind = "malformed"   // Could not parse a success/failure signal; retryable
	FailureUnsupported FailureKind = "unsupported" // No adapter implementation; terminal, retrying cannot help
)

// Retryable reports whether the dispatch engine may retry after this failure.
func (k FailureKind) Retryable() bool {
	return k == FailureTransport || k == FailureRejected || k == FailureMalformed
}

// SendOutcome is the adapter/engine contract for one send attempt. On success
// CorrelationID is meaningful; on failure ErrorDetail and Kind are.
type SendOutcome struct {
	Success       bool
	CorrelationID string
	ErrorDetail   string
	RawResponse   string // Raw provider response text, recorded for audit
	Kind          FailureKind
}

// Accepted builds a successful outcome.
func Accepted(correlationID, raw string) SendOutcome {
	return SendOutcome{Success: true, CorrelationID: correlationID, RawResponse: raw}
}

// Refused builds a failed outcome.
func Refused(kind FailureKind, detail string) SendOutcome {
	return SendOutcome{ErrorDetail: detail, RawResponse: detail, Kind: kind}
}

// ProviderAdapter speaks one provider type's wire protocol.
//
// Send never returns transport or remote failures as values outside the
// outcome; every such condition is captured in SendOutcome. The number must
// already be normalized for the adapter's provider type.
type ProviderAdapter interface {
	Send(ctx context.Context, p domain.Provider, number, message string) SendOutcome
}
