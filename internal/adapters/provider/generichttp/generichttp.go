// Package generichttp is the placeholder adapter for operator-configured
// generic HTTP gateways. Sending through it is a declared capability gap:
// every call fails with a fixed detail until a real protocol is implemented.
package generichttp

import (
	"context"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
)

// Detail is the fixed failure text returned on every send attempt.
const Detail = "Provider method implementation missing"

// Adapter implements ports.ProviderAdapter for the generic type.
type Adapter struct{}

// New returns the generic placeholder adapter.
func New() *Adapter {
	return &Adapter{}
}

// Send always fails with an unsupported outcome; the engine treats it as a
// terminal failure since retrying cannot help.
func (a *Adapter) Send(ctx context.Context, p domain.Provider, number, message string) ports.SendOutcome {
	return ports.Refused(ports.FailureUnsupported, Detail)
}
