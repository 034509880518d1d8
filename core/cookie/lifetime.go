package cookie

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Timestamper is satisfied by lifetime values that carry an absolute point in time,
// time.Time included. Their timestamp is used unchanged.
type Timestamper interface {
	Unix() int64
}

// AbsoluteLifetime wraps a raw UNIX timestamp so it is treated as an absolute
// expiry instead of seconds from now.
func AbsoluteLifetime(unix int64) time.Time {
	return time.Unix(unix, 0)
}

// IsLifetime reports whether v is a supported lifetime kind:
// integers, time.Duration, strings or a Timestamper.
func IsLifetime(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		time.Duration, string, Timestamper:
		return true
	default:
		return false
	}
}

// resolveAvailability converts a lifetime into a UNIX timestamp relative to now.
// Zero of any relative kind yields 0, the session cookie sentinel.
func resolveAvailability(lifetime any, now time.Time) (int64, error) {
	var seconds int64

	switch v := lifetime.(type) {
	case int:
		seconds = int64(v)
	case int8:
		seconds = int64(v)
	case int16:
		seconds = int64(v)
	case int32:
		seconds = int64(v)
	case int64:
		seconds = v
	case uint:
		seconds = int64(v)
	case uint8:
		seconds = int64(v)
	case uint16:
		seconds = int64(v)
	case uint32:
		seconds = int64(v)
	case uint64:
		seconds = int64(v)
	case time.Duration:
		seconds = int64(v / time.Second)
	case string:
		if IsNumeric(v) {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: lifetime %q: %w", ErrInvalidArgument, v, err)
			}
			seconds = int64(f)
			break
		}
		t, err := ParseTime(v, now)
		if err != nil {
			return 0, err
		}
		return t.Unix(), nil
	case Timestamper:
		return v.Unix(), nil
	default:
		return 0, fmt.Errorf("%w: lifetime must be an integer, duration, string or timestamp, got %T",
			ErrConfiguration, lifetime)
	}

	if seconds == 0 {
		return 0, nil
	}
	return now.Unix() + seconds, nil
}

var (
	offsetToken = regexp.MustCompile(`^([+-]?\d+)\s*(sec|second|min|minute|hour|day|week|fortnight|month|year)s?\b`)
	whitespace  = regexp.MustCompile(`\s+`)

	natural = newNaturalParser()
)

func newNaturalParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseTime parses a textual datetime expression relative to now.
//
// Expressions are tried in order:
//   - strtotime anchors and offsets: "now", "today", "midnight", "tomorrow" and
//     "yesterday" (the last four at 00:00), optionally followed by signed or bare
//     offsets such as "+1 day", "2 weeks", "1 fortnight" or "-3 hours";
//   - casual English understood by olebedev/when, such as "in 2 hours" or
//     "3 days ago", when it covers the whole expression;
//   - any absolute date layout understood by dateparse.
//
// Failures wrap ErrInvalidArgument.
func ParseTime(expr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(whitespace.ReplaceAllString(expr, " ")))
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty datetime expression", ErrInvalidArgument)
	}

	if t, ok := parseOffsets(s, now); ok {
		return t, nil
	}

	if r, err := natural.Parse(s, now); err == nil && r != nil && strings.TrimSpace(r.Text) == s {
		return r.Time, nil
	}

	t, err := dateparse.ParseIn(expr, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: textual datetime %q could not be parsed into a timestamp: %w",
			ErrInvalidArgument, expr, err)
	}
	return t, nil
}

// parseOffsets handles the strtotime forms when has no rule for: midnight
// anchors and "+N unit" offsets.
func parseOffsets(s string, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	anchors := map[string]time.Time{
		"now":       now,
		"today":     midnight,
		"midnight":  midnight,
		"tomorrow":  midnight.AddDate(0, 0, 1),
		"yesterday": midnight.AddDate(0, 0, -1),
	}

	t, anchored := now, false
	word, rest, _ := strings.Cut(s, " ")
	if anchor, ok := anchors[word]; ok {
		t, s, anchored = anchor, rest, true
	}

	offsets := 0
	for s != "" {
		m := offsetToken.FindStringSubmatch(s)
		if m == nil {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch m[2] {
		case "sec", "second":
			t = t.Add(time.Duration(n) * time.Second)
		case "min", "minute":
			t = t.Add(time.Duration(n) * time.Minute)
		case "hour":
			t = t.Add(time.Duration(n) * time.Hour)
		case "day":
			t = t.AddDate(0, 0, n)
		case "week":
			t = t.AddDate(0, 0, 7*n)
		case "fortnight":
			t = t.AddDate(0, 0, 14*n)
		case "month":
			t = t.AddDate(0, n, 0)
		case "year":
			t = t.AddDate(n, 0, 0)
		}
		offsets++
		s = strings.TrimSpace(s[len(m[0]):])
	}

	return t, anchored || offsets > 0
}
