// Package mimsms implements the MiMSMS (BD) gateway protocol: a JSON POST to
// /api/SmsSending/SMS. Deployments of the API disagree on response field
// names, so each field is resolved against an ordered alias list, first
// present wins.
package mimsms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
)

const requestTimeout = 15 * time.Second

// fallbackCorrelationID marks a success response that carried no message ID
// under any known alias.
const fallbackCorrelationID = "sent_ok"

// Response field aliases, in resolution order.
var (
	statusCodeAliases    = []string{"statusCode", "response_code"}
	messageIDAliases     = []string{"MessageId", "trxnId"}
	statusMessageAliases = []string{"responseResult", "status"}
)

// Adapter implements ports.ProviderAdapter for MiMSMS.
type Adapter struct {
	client *http.Client
}

// New returns a MiMSMS adapter with the standard send timeout.
func New() *Adapter {
	return &Adapter{client: &http.Client{Timeout: requestTimeout}}
}

type sendRequest struct {
	UserName        string `json:"UserName"`
	Apikey          string `json:"Apikey"`
	MobileNumber    string `json:"MobileNumber"`
	SenderName      string `json:"SenderName"`
	TransactionType string `json:"TransactionType"`
	Message         string `json:"Message"`
}

// Send submits one SMS. The number must be in international 880XXXXXXXXX form.
func (a *Adapter) Send(ctx context.Context, p domain.Provider, number, message string) ports.SendOutcome {
	payload, err := json.Marshal(sendRequest{
		UserName:        p.Credentials.Username,
		Apikey:          p.Credentials.APIKey,
		MobileNumber:    number,
		SenderName:      p.SenderID,
		TransactionType: "T",
		Message:         message,
	})
	if err != nil {
		return ports.Refused(ports.FailureTransport, "mimsms marshal request: "+err.Error())
	}

	url := strings.TrimRight(p.Credentials.APIURL, "/") + "/api/SmsSending/SMS"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return ports.Refused(ports.FailureTransport, "mimsms request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return ports.Refused(ports.FailureTransport, "mimsms connection error: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Refused(ports.FailureTransport, "mimsms read response: "+err.Error())
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ports.Refused(ports.FailureMalformed, "mimsms invalid json: "+string(raw))
	}

	statusCode := lookup(fields, statusCodeAliases)
	if statusCode == "200" {
		id := lookup(fields, messageIDAliases)
		if id == "" {
			id = fallbackCorrelationID
		}
		return ports.Accepted(id, string(raw))
	}

	detail := lookup(fields, statusMessageAliases)
	out := ports.Refused(ports.FailureRejected, fmt.Sprintf("mimsms error (%s): %s", statusCode, detail))
	out.RawResponse = string(raw)
	return out
}

// lookup resolves the first present, non-empty alias to its string form.
func lookup(fields map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}
