// Package boomcast implements the Boomcast (BD) gateway protocol: a
// synchronous HTTP GET with query parameters, answered by freeform text such
// as "SUCCESS - 12345" or "FAILED - Reason". There is no structured
// transaction ID; the response prefix doubles as the correlation ID.
package boomcast

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/segment"
)

const requestTimeout = 15 * time.Second

// correlationPrefixLen caps how much of the freeform response is stored as
// the correlation ID.
const correlationPrefixLen = 50

// Adapter implements ports.ProviderAdapter for Boomcast.
type Adapter struct {
	client *http.Client
}

// New returns a Boomcast adapter with the standard send timeout.
func New() *Adapter {
	return &Adapter{client: &http.Client{Timeout: requestTimeout}}
}

// Send submits one SMS. The number must be in bare local 0XXXXXXXXX form.
func (a *Adapter) Send(ctx context.Context, p domain.Provider, number, message string) ports.SendOutcome {
	msgType := "TEXT"
	if segment.IsUnicode(message) {
		msgType = "UNICODE"
	}

	masking := p.SenderID
	if masking == "" {
		masking = "NOMASK"
	}

	params := url.Values{}
	params.Set("masking", masking)
	params.Set("userName", p.Credentials.Username)
	params.Set("password", p.Credentials.Password)
	params.Set("MsgType", msgType)
	params.Set("receiver", number)
	params.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Credentials.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return ports.Refused(ports.FailureTransport, "boomcast request: "+err.Error())
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return ports.Refused(ports.FailureTransport, "boomcast connection error: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Refused(ports.FailureTransport, "boomcast read response: "+err.Error())
	}
	text := strings.TrimSpace(string(raw))

	lower := strings.ToLower(text)
	if resp.StatusCode == http.StatusOK && (strings.Contains(lower, "success") || strings.Contains(lower, "sent")) {
		id := text
		if len(id) > correlationPrefixLen {
			id = id[:correlationPrefixLen]
		}
		return ports.Accepted(id, text)
	}

	return ports.Refused(ports.FailureRejected, "boomcast error: "+text)
}
