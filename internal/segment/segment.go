// Package segment computes SMS encoding class and segment counts for a
// message body. The numbers are advisory, surfaced to operators at compose
// time; adapters do not enforce them.
package segment

import "unicode/utf8"

// GSM 7-bit and UCS-2 segment limits. Concatenated messages lose a few
// characters per segment to the UDH header.
const (
	singleGSM  = 160
	concatGSM  = 153
	singleUCS2 = 70
	concatUCS2 = 67
)

// Info describes how a message body will be split on the wire.
type Info struct {
	CharCount    int  `json:"char_count"`
	IsUnicode    bool `json:"is_unicode"`
	SegmentCount int  `json:"segment_count"`
}

// Compute returns segmentation info for text. Empty text yields zero segments.
func Compute(text string) Info {
	count := utf8.RuneCountInString(text)
	unicode := IsUnicode(text)

	var limit int
	switch {
	case !unicode && count <= singleGSM:
		limit = singleGSM
	case !unicode:
		limit = concatGSM
	case count <= singleUCS2:
		limit = singleUCS2
	default:
		limit = concatUCS2
	}

	segments := 0
	if count > 0 {
		segments = (count + limit - 1) / limit
	}

	return Info{CharCount: count, IsUnicode: unicode, SegmentCount: segments}
}

// IsUnicode reports whether text falls outside 7-bit ASCII and therefore
// needs UCS-2 encoding on the wire.
func IsUnicode(text string) bool {
	for _, r := range text {
		if r > 127 {
			return true
		}
	}
	return false
}
