package filename

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// kiloSuffixes are the kilo-electronvolt unit spellings seen in the archive.
// The plain spellings follow; anything else is assumed to already be in eV.
var (
	kiloSuffixes  = []string{"keV", "kEV", "KEV", "KeV"}
	plainSuffixes = []string{"eV", "EV"}
)

// parseEnergy converts an energy token to electronvolts. Kilo-prefixed
// variants multiply by 1000; the returned unit is always "eV".
func parseEnergy(tok string) (float64, string, bool) {
	for _, suffix := range kiloSuffixes {
		if strings.HasSuffix(tok, suffix) {
			v, err := strconv.ParseFloat(tok[:len(tok)-len(suffix)], 64)
			if err != nil {
				return 0, "", false
			}
			return v * 1000, "eV", true
		}
	}
	for _, suffix := range plainSuffixes {
		if strings.HasSuffix(tok, suffix) {
			v, err := strconv.ParseFloat(tok[:len(tok)-len(suffix)], 64)
			if err != nil {
				return 0, "", false
			}
			return v, "eV", true
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, "", false
	}
	return v, "eV", true
}

// parseAngle handles bare signed angles and sweep tokens like "84to-118".
// A sweep stores its travel limits as (min, max) and reports the midpoint
// as the representative value.
func parseAngle(tok string) (float64, *AngleRange, bool) {
	if !strings.Contains(tok, "to") {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, nil, false
		}
		return v, nil, true
	}

	parts := strings.Split(tok, "to")
	if len(parts) == 2 {
		a, errA := strconv.ParseFloat(parts[0], 64)
		b, errB := strconv.ParseFloat(parts[1], 64)
		if errA == nil && errB == nil {
			rng := &AngleRange{Min: math.Min(a, b), Max: math.Max(a, b)}
			return rng.Midpoint(), rng, true
		}
	}

	// Fall back to the leading angle when the range does not parse cleanly.
	v, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, nil, false
	}
	return v, nil, true
}

// timestampLayout is the compact collection timestamp the bench appends to
// most filenames: two-digit year, month, day, then wall-clock time.
const timestampLayout = "060102-150405"

// parseTimestamp returns nil for tokens that do not form a real calendar
// time; the field simply stays absent.
func parseTimestamp(tok string) *time.Time {
	t, err := time.Parse(timestampLayout, tok)
	if err != nil {
		return nil
	}
	return &t
}
