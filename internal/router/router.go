// Package router selects the delivery provider for a destination number.
package router

import (
	"strings"

	"sms-dispatch-gateway/internal/domain"
)

// Select picks the provider for destination from enabled, which must be in
// configuration order (ties on priority resolve to the earlier entry).
//
// The lowest-priority enabled provider is the default. Destinations carrying
// the Bangladesh country code prefer the lowest-priority enabled BD gateway
// when one exists, since international routes to BD numbers are unreliable
// and expensive. Returns false when no enabled provider exists.
func Select(enabled []domain.Provider, destination string) (domain.Provider, bool) {
	best, ok := lowest(enabled, func(domain.Provider) bool { return true })
	if !ok {
		return domain.Provider{}, false
	}

	if isBD(destination) {
		if bd, ok := lowest(enabled, func(p domain.Provider) bool { return p.Type.BD() }); ok {
			return bd, true
		}
	}

	return best, true
}

// isBD reports whether the destination carries the 880 country code.
func isBD(destination string) bool {
	return strings.HasPrefix(destination, "880") || strings.HasPrefix(destination, "+880")
}

// lowest returns the first provider with the minimal priority among those
// matching keep.
func lowest(list []domain.Provider, keep func(domain.Provider) bool) (domain.Provider, bool) {
	var best domain.Provider
	found := false
	for _, p := range list {
		if !keep(p) {
			continue
		}
		if !found || p.Priority < best.Priority {
			best = p
			found = true
		}
	}
	return best, found
}
