package domain

import (
	"strconv"
	"strings"
)

// StartMarker is the virtual anchor a picker route begins from.
const StartMarker = "START"

// Segment weights for aisle-bay-level-slot codes. The aisle segment is not weighted.
const (
	bayWeight   = 10000
	levelWeight = 100
	slotWeight  = 1
)

// maxSegmentDigits bounds a numeric segment so the weighted sum cannot overflow.
const maxSegmentDigits = 4

// IsAnchor reports whether code is a virtual starting marker ("START", "START-DOCK-1", ...).
func IsAnchor(code string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(code)), StartMarker)
}

// LocationScalar collapses a location code such as "A-01-02-03" into a single
// comparable value. Missing segments, and segments that are not 1 to 4
// plain digits, count as zero.
func LocationScalar(code string) int {
	segments := strings.Split(strings.TrimSpace(code), "-")
	weights := [...]int{bayWeight, levelWeight, slotWeight}

	scalar := 0
	for i, weight := range weights {
		idx := i + 1
		if idx >= len(segments) {
			break
		}
		scalar += segmentValue(segments[idx]) * weight
	}
	return scalar
}

func segmentValue(segment string) int {
	if segment == "" || len(segment) > maxSegmentDigits {
		return 0
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, _ := strconv.Atoi(segment)
	return n
}

// Distance returns the approximate travel cost between two locations.
// Anchors are at distance zero from everything.
func Distance(from, to string) int {
	if IsAnchor(from) || IsAnchor(to) {
		return 0
	}
	d := LocationScalar(from) - LocationScalar(to)
	if d < 0 {
		return -d
	}
	return d
}

// ZoneFromLocation returns the leading segment of a location code, which
// names the aisle group the location belongs to. It is the fallback when no
// configured zone claims the location.
func ZoneFromLocation(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || IsAnchor(code) {
		return ""
	}
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i]
	}
	return code
}

// ZoneForLocation returns the id of the zone whose configured location
// prefixes match code, or "". A prefix matches whole segments only, so
// "A-01" claims "A-01-02-03" but not "A-010-01". The longest matching
// prefix wins; equal prefixes in two zones go to the smaller zone id.
func ZoneForLocation(code string, zones []*ZoneConfiguration) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || IsAnchor(code) {
		return ""
	}

	best, bestLen := "", 0
	for _, zone := range zones {
		if zone == nil {
			continue
		}
		for _, prefix := range zone.Locations {
			prefix = strings.ToUpper(strings.TrimSpace(prefix))
			if prefix == "" || !hasSegmentPrefix(code, prefix) {
				continue
			}
			if len(prefix) > bestLen || (len(prefix) == bestLen && zone.ZoneID < best) {
				best, bestLen = zone.ZoneID, len(prefix)
			}
		}
	}
	return best
}

func hasSegmentPrefix(code, prefix string) bool {
	if code == prefix {
		return true
	}
	return strings.HasPrefix(code, prefix+"-")
}
