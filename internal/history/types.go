package history

import (
	"strings"
	"time"
)

// Record is a single visited-page entry.
type Record struct {
	ID         string
	URL        string
	Host       string
	Pathname   string
	Title      string
	SearchText string
	Timestamp  time.Time
}

// BuildSearchText returns the text a Matcher is evaluated against.
func BuildSearchText(title, rawURL string) string {
	return strings.TrimSpace(title + " " + rawURL)
}

// Window restricts a search or deletion to an inclusive time range.
// A zero Since means unbounded below. A zero Until means "now" at the
// moment the operation starts.
type Window struct {
	Since time.Time
	Until time.Time
}

// AllTime is the window covering every record up to the operation start.
var AllTime = Window{}

// Range is the concrete, already-normalized bound handed to a Store.
// A zero Lower or Upper is unbounded on that side.
type Range struct {
	Lower time.Time
	Upper time.Time
	// Snapshot, when valid, also excludes records stored after it was taken.
	Snapshot Snapshot
}

// Snapshot marks a position in a store's insertion order.
type Snapshot struct {
	Seq   int64
	Valid bool
}

// Includes reports whether a record stored at seq existed when the
// snapshot was taken. An invalid snapshot includes everything.
func (s Snapshot) Includes(seq int64) bool { return !s.Valid || seq <= s.Seq }

// Contains reports whether ts falls inside the range.
func (r Range) Contains(ts time.Time) bool {
	if !r.Lower.IsZero() && ts.Before(r.Lower) {
		return false
	}
	if !r.Upper.IsZero() && ts.After(r.Upper) {
		return false
	}
	return true
}

var epoch = time.UnixMilli(0)

// resolve pins Until to now when unset and drops a malformed lower bound.
// The second return value is false when the window had to be repaired.
func (w Window) resolve(now time.Time) (Range, bool) {
	r := Range{Lower: w.Since, Upper: w.Until}
	if r.Upper.IsZero() {
		r.Upper = now
	}

	ok := true
	if !r.Lower.IsZero() && r.Lower.Before(epoch) {
		r.Lower = time.Time{}
		ok = false
	}
	if !r.Lower.IsZero() && r.Lower.After(r.Upper) {
		r.Lower = time.Time{}
		ok = false
	}
	if !r.Lower.IsZero() && r.Lower.Equal(epoch) {
		r.Lower = time.Time{}
	}
	return r, ok
}
