package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/backtrail/internal/history"
	"github.com/runnerr0/backtrail/internal/storage"
)

func execute(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	var err error
	out := captureOutput(t, func() { err = fn() })
	return out, err
}

// --- add ---

func TestAdd_RecordsVisit(t *testing.T) {
	s := newTestSession(t)
	cmd := &AddCommand{sess: s, URL: "https://go.dev/doc/", Title: "Documentation", At: "2024-03-01T12:00:00Z"}

	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded ")
	assert.Contains(t, out, "(https://go.dev/doc/)")

	recs, err := s.engine.Search(context.Background(), "documentation", history.SearchOptions{}).Collect()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "go.dev", recs[0].Host)
	assert.Equal(t, "/doc/", recs[0].Pathname)
	assert.True(t, recs[0].Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestAdd_RequiresURL(t *testing.T) {
	err := (&AddCommand{}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url is required")
}

func TestAdd_InvalidAt(t *testing.T) {
	s := newTestSession(t)
	err := (&AddCommand{sess: s, URL: "https://a.test/", At: "yesterday"}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --at")
}

func TestAdd_RejectsRelativeURL(t *testing.T) {
	s := newTestSession(t)
	err := (&AddCommand{sess: s, URL: "just-text"}).Execute(nil)
	assert.Error(t, err)
	assert.Equal(t, int64(0), visitCount(t, s))
}

func TestAdd_JSONOutput(t *testing.T) {
	s := newTestSession(t)
	cmd := &AddCommand{sess: s, globals: &GlobalFlags{JSON: true}, URL: "https://a.test/x"}

	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "https://a.test/x", result["url"])
	assert.NotEmpty(t, result["id"])
	assert.NotEmpty(t, result["timestamp"])
}

// --- delete ---

func TestDelete_RemovesVisit(t *testing.T) {
	s := newTestSession(t)
	rec := seedVisit(t, s, time.Now().Add(-time.Minute), "https://a.test/", "A")
	seedVisit(t, s, time.Now().Add(-time.Hour), "https://b.test/", "B")

	out, err := execute(t, func() error { return (&DeleteCommand{sess: s, ID: rec.ID}).Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+rec.ID)

	_, err = s.store.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, int64(1), visitCount(t, s))
}

func TestDelete_UnknownIDIsNoOp(t *testing.T) {
	s := newTestSession(t)
	seedVisit(t, s, time.Now(), "https://a.test/", "A")

	_, err := execute(t, func() error { return (&DeleteCommand{sess: s, ID: "missing"}).Execute(nil) })
	require.NoError(t, err)
	assert.Equal(t, int64(1), visitCount(t, s))
}

func TestDelete_RequiresID(t *testing.T) {
	err := (&DeleteCommand{}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}

// --- forget ---

func seedForget(t *testing.T, s *session) {
	t.Helper()
	now := time.Now()
	seedVisit(t, s, now.Add(-30*time.Minute), "https://recent.test/1", "Recent 1")
	seedVisit(t, s, now.Add(-3*time.Hour), "https://recent.test/2", "Recent 2")
	seedVisit(t, s, now.Add(-72*time.Hour), "https://older.test/", "Older")
}

func TestForget_Since(t *testing.T) {
	s := newTestSession(t)
	seedForget(t, s)

	cmd := &ForgetCommand{sess: s, Since: "24h", Force: true}
	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 visits from the last 1 day.")

	recs, err := s.engine.Search(context.Background(), "", history.SearchOptions{}).Collect()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://older.test/", recs[0].URL)
}

func TestForget_SecondRunDeletesNothing(t *testing.T) {
	s := newTestSession(t)
	seedForget(t, s)

	cmd := &ForgetCommand{sess: s, Since: "24h", Force: true}
	_, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)

	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 visits")
}

func TestForget_AllTime(t *testing.T) {
	s := newTestSession(t)
	seedForget(t, s)

	cmd := &ForgetCommand{sess: s, AllTime: true, globals: &GlobalFlags{JSON: true}, Force: true}
	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(3), result["deleted"])
	assert.Equal(t, true, result["all_time"])
	assert.NotContains(t, result, "since")
	assert.Equal(t, int64(0), visitCount(t, s))
}

func TestForget_ConfirmationNo(t *testing.T) {
	s := newTestSession(t)
	seedForget(t, s)

	cmd := &ForgetCommand{sess: s, Since: "24h", stdin: strings.NewReader("n\n")}
	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Delete every visit from the last 1 day? [y/N]")
	assert.Contains(t, out, "Aborted.")
	assert.Equal(t, int64(3), visitCount(t, s))
}

func TestForget_FlagValidation(t *testing.T) {
	err := (&ForgetCommand{}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --since or --all-time")

	err = (&ForgetCommand{Since: "1h", AllTime: true}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")

	err = (&ForgetCommand{Since: "1y", Force: true}).Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --since")
}

// --- dedupe ---

func TestDedupe_KeepsLatestPerURL(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()
	seedVisit(t, s, now.Add(-3*time.Hour), "https://a.test/", "A old")
	seedVisit(t, s, now.Add(-2*time.Hour), "https://b.test/", "B")
	latest := seedVisit(t, s, now.Add(-1*time.Hour), "https://a.test/", "A new")

	out, err := execute(t, func() error { return (&DedupeCommand{sess: s}).Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 older visit.")

	got, err := s.store.Get(context.Background(), latest.ID)
	require.NoError(t, err)
	assert.Equal(t, "A new", got.Title)
	assert.Equal(t, int64(2), visitCount(t, s))
}

func TestDedupe_JSONOutput(t *testing.T) {
	s := newTestSession(t)
	seedVisit(t, s, time.Now(), "https://a.test/", "A")

	out, err := execute(t, func() error { return (&DedupeCommand{sess: s, globals: &GlobalFlags{JSON: true}}).Execute(nil) })
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(0), result["deleted"])
}

// --- status ---

func TestStatus_EmptyStore(t *testing.T) {
	s := newTestSession(t)

	out, err := execute(t, func() error { return (&StatusCommand{sess: s, version: "1.0.0"}).Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Version:       1.0.0")
	assert.Contains(t, out, "Visits:        0")
	assert.Contains(t, out, "Retention:     90 days")
	assert.NotContains(t, out, "Oldest:")
	assert.NotContains(t, out, "Top Hosts:")
}

func TestStatus_WithVisits(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()
	seedVisit(t, s, now.Add(-2*time.Hour), "https://a.test/x", "A")
	seedVisit(t, s, now.Add(-1*time.Hour), "https://a.test/x", "A")
	seedVisit(t, s, now, "https://b.test/", "B")

	out, err := execute(t, func() error { return (&StatusCommand{sess: s}).Execute(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Visits:        3")
	assert.Contains(t, out, "Unique URLs:   2")
	assert.Contains(t, out, "Oldest:")
	assert.Contains(t, out, "Top Hosts:")
	assert.Contains(t, out, "a.test")
}

func TestStatus_JSONOutput(t *testing.T) {
	s := newTestSession(t)
	seedVisit(t, s, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "https://a.test/", "A")

	cmd := &StatusCommand{sess: s, version: "2.0.0", globals: &GlobalFlags{JSON: true}}
	out, err := execute(t, func() error { return cmd.Execute(nil) })
	require.NoError(t, err)

	var result statusJSON
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "2.0.0", result.Version)
	assert.Equal(t, int64(1), result.TotalVisits)
	assert.Equal(t, "2024-01-02T03:04:05Z", result.OldestVisit)
	assert.Equal(t, 90, result.RetentionDays)
	require.Len(t, result.TopHosts, 1)
	assert.Equal(t, hostCountJSON{Host: "a.test", Count: 1}, result.TopHosts[0])
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
