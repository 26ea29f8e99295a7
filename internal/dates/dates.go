// Package dates handles the partial calendar dates used throughout the
// catalog: MusicBrainz reports release dates as "1977", "1977-10" or
// "1977-10-28", and user input arrives in whatever notation the user prefers.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownKey sorts after every real date when raw date strings are compared
// lexicographically, so undated entries land at the end of ranked lists.
const UnknownKey = "9999"

// PartialDate is a calendar date known to year, year+month, or full
// year-month-day precision. Month and Day are zero when unknown. Raw keeps
// the original text; ranking compares Raw strings, not numeric fields (see
// Key).
type PartialDate struct {
	Year  int
	Month int
	Day   int
	Raw   string
}

// IsZero reports whether the date carries no information at all.
func (pd PartialDate) IsZero() bool { return pd.Year == 0 }

// Full reports whether year, month and day are all known.
func (pd PartialDate) Full() bool { return pd.Year != 0 && pd.Month != 0 && pd.Day != 0 }

// Key returns the string used for ordering. Raw when present, the unknown
// sentinel otherwise. Comparison of these keys is plain string comparison;
// "1977-10" sorts before "1977-10-28", and UnknownKey after both.
func (pd PartialDate) Key() string {
	if pd.Raw == "" {
		return UnknownKey
	}
	return pd.Raw
}

// ISO renders the date in the catalog's own notation: "2006", "2006-01" or
// "2006-01-02" depending on precision.
func (pd PartialDate) ISO() string {
	switch {
	case pd.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", pd.Year, pd.Month, pd.Day)
	case pd.Month != 0:
		return fmt.Sprintf("%04d-%02d", pd.Year, pd.Month)
	default:
		return fmt.Sprintf("%04d", pd.Year)
	}
}

// ParseISO parses a partial ISO date ("1977", "1977-10", "1977-10-28").
// Components beyond what the input carries stay zero. No range validation is
// applied; the catalog is trusted as-is. Empty input reports false.
func ParseISO(s string) (PartialDate, bool) {
	if s == "" {
		return PartialDate{}, false
	}
	pd := PartialDate{Raw: s}
	parts := strings.SplitN(s, "-", 3)
	if len(parts) > 0 {
		pd.Year, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		pd.Month, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		pd.Day, _ = strconv.Atoi(parts[2])
	}
	if pd.Year == 0 {
		return PartialDate{}, false
	}
	return pd, true
}

var (
	isoRe     = regexp.MustCompile(`^(\d{4})[/\-](\d{1,2})[/\-](\d{1,2})$`)
	numericRe = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)
	dayFirst  = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)[,\s]+(\d{4})$`)
	monthDay  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})[,\s]+(\d{4})$`)
	monthYear = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{4})$`)
	bareYear  = regexp.MustCompile(`^(\d{4})$`)
)

var monthPrefixes = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// monthByName matches a month by case-insensitive 3-letter prefix, so
// "June", "jun" and "JUNE" all resolve to 6. Returns 0 on no match.
func monthByName(name string) int {
	lower := strings.ToLower(name)
	for i, p := range monthPrefixes {
		if strings.HasPrefix(lower, p) {
			return i + 1
		}
	}
	return 0
}

// ParseFlexible parses a free-text date expression. Recognized notations, in
// priority order: "1955-06-14" / "1955/6/14"; numeric "6/14/1955", "22.9.88"
// (a component above 12 pins the day slot, otherwise month-first is assumed);
// "14 June 1955"; "June 14, 1955"; "June 1955"; bare "1955". Missing month
// and day default to 1. Reports false when nothing matches; the caller
// surfaces that to the user rather than guessing.
func ParseFlexible(s string) (PartialDate, bool) {
	s = strings.TrimSpace(s)

	if m := isoRe.FindStringSubmatch(s); m != nil {
		return newFull(atoi(m[1]), atoi(m[2]), atoi(m[3])), true
	}

	if m := numericRe.FindStringSubmatch(s); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		year := atoi(m[3])
		if len(m[3]) == 2 {
			if year <= 30 {
				year += 2000
			} else {
				year += 1900
			}
		}
		switch {
		case b > 12: // month/day/year, e.g. 9/22/88
			return newFull(year, a, b), true
		case a > 12: // day/month/year, e.g. 22/9/88
			return newFull(year, b, a), true
		default: // ambiguous, assume US month-first
			return newFull(year, a, b), true
		}
	}

	if m := dayFirst.FindStringSubmatch(s); m != nil {
		if month := monthByName(m[2]); month != 0 {
			return newFull(atoi(m[3]), month, atoi(m[1])), true
		}
	}

	if m := monthDay.FindStringSubmatch(s); m != nil {
		if month := monthByName(m[1]); month != 0 {
			return newFull(atoi(m[3]), month, atoi(m[2])), true
		}
	}

	if m := monthYear.FindStringSubmatch(s); m != nil {
		if month := monthByName(m[1]); month != 0 {
			return newFull(atoi(m[2]), month, 1), true
		}
	}

	if m := bareYear.FindStringSubmatch(s); m != nil {
		return newFull(atoi(m[1]), 1, 1), true
	}

	return PartialDate{}, false
}

func newFull(year, month, day int) PartialDate {
	pd := PartialDate{Year: year, Month: month, Day: day}
	pd.Raw = pd.ISO()
	return pd
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Format renders a date for display: "October 28, 1977" at full precision,
// "October 1977" without a day, "1977" without a month. Out-of-range months
// fall back to the raw string rather than failing.
func Format(pd PartialDate) string {
	if pd.Year == 0 {
		return "Unknown date"
	}
	if pd.Month < 1 || pd.Month > 12 {
		if pd.Month == 0 {
			return strconv.Itoa(pd.Year)
		}
		return pd.Key()
	}
	month := time.Month(pd.Month)
	if pd.Day != 0 {
		return fmt.Sprintf("%s %d, %d", month, pd.Day, pd.Year)
	}
	return fmt.Sprintf("%s %d", month, pd.Year)
}
