// Package msisdn canonicalizes destination phone numbers into the exact
// format each provider's gateway accepts. The rules are provider quirks, not
// standards: Boomcast rejects anything with a country code, MiMSMS rejects
// anything without one, SNS requires E.164.
package msisdn

import (
	"strings"

	"sms-dispatch-gateway/internal/domain"
)

// Normalize returns the provider-specific canonical form of raw.
// It returns "" for empty input; callers must treat that as a permanent
// failure and not retry.
func Normalize(raw string, providerType domain.ProviderType) string {
	n := strip(raw)
	if n == "" {
		return ""
	}

	switch providerType {
	case domain.ProviderBoomcast:
		return boomcast(n)
	case domain.ProviderMiMSMS:
		return mimsms(n)
	case domain.ProviderAWSSNS:
		return e164(n)
	default:
		// Generic gateways define their own format; pass through untouched.
		return n
	}
}

// strip removes spaces and hyphens, the universal first step.
func strip(raw string) string {
	n := strings.ReplaceAll(raw, " ", "")
	return strings.ReplaceAll(n, "-", "")
}

// boomcast yields the bare local 0XXXXXXXXX form. The gateway fails on any
// number carrying a +88 or 88 prefix.
func boomcast(n string) string {
	n = strings.TrimPrefix(n, "+")
	if strings.HasPrefix(n, "880") {
		n = n[2:]
	}
	if strings.HasPrefix(n, "00880") {
		n = n[4:]
	}
	// Should start with 01 now. If it doesn't we send it as is and let the
	// provider reject it.
	return n
}

// mimsms yields the international 880XXXXXXXXX form without a plus. Numbers
// that still lack the 88 prefix after conversion pass through unchanged and
// fail provider-side validation instead.
func mimsms(n string) string {
	n = strings.TrimPrefix(n, "+")
	if strings.HasPrefix(n, "01") {
		n = "88" + n
	}
	return n
}

// e164 ensures a leading plus without altering digits.
func e164(n string) string {
	if !strings.HasPrefix(n, "+") {
		return "+" + n
	}
	return n
}
