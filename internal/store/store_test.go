package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func testSummary(date string) sleep.Summary {
	return sleep.Summary{
		Date:           date,
		AvgBreathRate:  12.00,
		MinBreathRate:  10.00,
		MaxBreathRate:  14.00,
		AvgPeaksIn20:   5.25,
		ApneaEvents:    2,
		HypopneaEvents: 1,
		AHI:            3.5,
		LongestPause:   0.0,
		TotalSleepSecs: 27000,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := testSummary("2026-01-01")

	if err := s.Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read("2026-01-01")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestWriteUsesExactJSONKeys(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testSummary("2026-01-01")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "2026-01-01.json"))
	if err != nil {
		t.Fatalf("read record file: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}

	keys := []string{
		"date", "avg_breath_rate", "min_breath_rate", "max_breath_rate",
		"avg_peaks_in_20", "apnea_events", "hypopnea_events", "AHI",
		"longest_pause", "total_sleep_secs",
	}
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			t.Errorf("record missing key %q", k)
		}
	}
	if len(raw) != len(keys) {
		t.Errorf("expected %d keys, got %d: %v", len(keys), len(raw), raw)
	}

	// Indented output so the records stay human-inspectable.
	if !strings.Contains(string(data), "\n  ") {
		t.Error("expected indented JSON")
	}
}

func TestWriteOverwritesExistingRecord(t *testing.T) {
	s := newTestStore(t)

	first := testSummary("2026-01-01")
	if err := s.Write(first); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}

	second := first
	second.AvgBreathRate = 13.37
	second.TotalSleepSecs = 30000
	if err := s.Write(second); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, err := s.Read("2026-01-01")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != second {
		t.Errorf("expected last write to win, got %+v", got)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 record, got %d", s.Count())
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testSummary("2026-01-01")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestListSortedByDate(t *testing.T) {
	s := newTestStore(t)
	for _, date := range []string{"2026-01-03", "2026-01-01", "2026-01-02"} {
		if err := s.Write(testSummary(date)); err != nil {
			t.Fatalf("Write %s failed: %v", date, err)
		}
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	want := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	for i, date := range want {
		if got[i].Date != date {
			t.Errorf("position %d: expected %s, got %s", i, date, got[i].Date)
		}
	}
}

func TestListSkipsCorruptRecords(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testSummary("2026-01-01")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	corrupt := filepath.Join(s.Dir(), "2026-01-02.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected corrupt record skipped, got %d records", len(got))
	}
	if got[0].Date != "2026-01-01" {
		t.Errorf("expected surviving record 2026-01-01, got %s", got[0].Date)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(testSummary("2026-01-01")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 record, got %d", len(got))
	}
}

func TestListEmptyStore(t *testing.T) {
	s := newTestStore(t)

	got, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestReadMissingDate(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read("2026-12-31"); err == nil {
		t.Error("expected error for missing record")
	}
}

// countingObserver records write outcomes for observer tests.
type countingObserver struct {
	writes int
	errors int
}

func (o *countingObserver) IncSummaryWrites()      { o.writes++ }
func (o *countingObserver) IncSummaryWriteErrors() { o.errors++ }

func TestObserverSeesWriteOutcomes(t *testing.T) {
	s := newTestStore(t)
	obs := &countingObserver{}
	s.SetObserver(obs)

	if err := s.Write(testSummary("2026-03-01")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(testSummary("2026-03-02")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if obs.writes != 2 {
		t.Errorf("writes: got %d, want 2", obs.writes)
	}
	if obs.errors != 0 {
		t.Errorf("errors: got %d, want 0", obs.errors)
	}

	// Removing the directory forces the temp-file create to fail.
	if err := os.RemoveAll(s.Dir()); err != nil {
		t.Fatalf("remove store dir: %v", err)
	}
	if err := s.Write(testSummary("2026-03-03")); err == nil {
		t.Fatal("expected write to fail with the directory gone")
	}
	if obs.errors != 1 {
		t.Errorf("errors after failure: got %d, want 1", obs.errors)
	}
	if obs.writes != 2 {
		t.Errorf("writes after failure: got %d, want 2", obs.writes)
	}
}
