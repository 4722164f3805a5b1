package sleep

import "testing"

func TestNewDay(t *testing.T) {
	d := NewDay("2026-01-01")
	if d.Date() != "2026-01-01" {
		t.Errorf("expected date 2026-01-01, got %s", d.Date())
	}
	if !d.Empty() {
		t.Error("new day should be empty")
	}
	if d.SampleCount() != 0 {
		t.Errorf("expected zero samples, got %d", d.SampleCount())
	}
}

func TestAddAccumulatesSequencesAndLatestScalars(t *testing.T) {
	d := NewDay("2026-01-01")

	d.Add(sampleWith(t, 14.0, 6, 1, 0, 2.5, 60))
	d.Add(sampleWith(t, 16.0, 8, 2, 1, 3.0, 120))

	if d.Empty() {
		t.Error("day should not be empty after adds")
	}
	if d.SampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", d.SampleCount())
	}
	if len(d.rates) != 2 || d.rates[0] != 14.0 || d.rates[1] != 16.0 {
		t.Errorf("unexpected rate sequence: %v", d.rates)
	}
	if len(d.peaks) != 2 || d.peaks[0] != 6 || d.peaks[1] != 8 {
		t.Errorf("unexpected peaks sequence: %v", d.peaks)
	}

	// Scalars are last-writer-wins.
	if d.apneas != 2 {
		t.Errorf("expected apneas=2, got %d", d.apneas)
	}
	if d.hypopneas != 1 {
		t.Errorf("expected hypopneas=1, got %d", d.hypopneas)
	}
	if d.breathsIn20 != 8 {
		t.Errorf("expected breathsIn20=8, got %d", d.breathsIn20)
	}
	if d.ahi != 3.0 {
		t.Errorf("expected ahi=3.0, got %v", d.ahi)
	}
	if d.TotalSleep() != 120 {
		t.Errorf("expected total sleep 120, got %v", d.TotalSleep())
	}
}

func TestSummarizeEmptyDay(t *testing.T) {
	d := NewDay("2026-01-01")
	if _, ok := d.Summarize(0); ok {
		t.Error("summarizing an empty day should report ok=false")
	}
}

func TestSummarizeComputesRoundedStats(t *testing.T) {
	d := NewDay("2026-01-01")
	for _, rate := range []float64{10, 12, 14} {
		d.Add(sampleWith(t, rate, 5, 1, 1, 5.0, 0))
	}

	sum, ok := d.Summarize(60)
	if !ok {
		t.Fatal("expected a summary for a populated day")
	}
	if sum.Date != "2026-01-01" {
		t.Errorf("expected date 2026-01-01, got %s", sum.Date)
	}
	if sum.AvgBreathRate != 12.00 {
		t.Errorf("expected avg 12.00, got %v", sum.AvgBreathRate)
	}
	if sum.MinBreathRate != 10.00 {
		t.Errorf("expected min 10.00, got %v", sum.MinBreathRate)
	}
	if sum.MaxBreathRate != 14.00 {
		t.Errorf("expected max 14.00, got %v", sum.MaxBreathRate)
	}
	if sum.AvgPeaksIn20 != 5.00 {
		t.Errorf("expected avg peaks 5.00, got %v", sum.AvgPeaksIn20)
	}
	if sum.ApneaEvents != 1 || sum.HypopneaEvents != 1 {
		t.Errorf("expected apnea/hypopnea 1/1, got %d/%d", sum.ApneaEvents, sum.HypopneaEvents)
	}
	if sum.AHI != 5.0 {
		t.Errorf("expected AHI 5.0, got %v", sum.AHI)
	}
	if sum.LongestPause != 0.0 {
		t.Errorf("expected longest pause 0.0, got %v", sum.LongestPause)
	}
	if sum.TotalSleepSecs != 60 {
		t.Errorf("expected total sleep 60, got %v", sum.TotalSleepSecs)
	}
}

func TestSummarizeRoundsHalfAwayFromZero(t *testing.T) {
	d := NewDay("2026-01-02")
	d.Add(sampleWith(t, 10.5, 3, 0, 0, 0, 0))
	d.Add(sampleWith(t, 11.25, 4, 0, 0, 0, 0))

	sum, ok := d.Summarize(0)
	if !ok {
		t.Fatal("expected a summary")
	}
	// avg = 10.875 rounds up to 10.88
	if sum.AvgBreathRate != 10.88 {
		t.Errorf("expected avg 10.88, got %v", sum.AvgBreathRate)
	}
	// avg peaks = 3.5
	if sum.AvgPeaksIn20 != 3.5 {
		t.Errorf("expected avg peaks 3.5, got %v", sum.AvgPeaksIn20)
	}
}

func TestSummarizeTruncatesRepeatingDecimals(t *testing.T) {
	d := NewDay("2026-01-03")
	for _, rate := range []float64{10, 10, 11} {
		d.Add(sampleWith(t, rate, 5, 0, 0, 0, 0))
	}

	sum, ok := d.Summarize(0)
	if !ok {
		t.Fatal("expected a summary")
	}
	// avg = 10.333... rounds to 10.33
	if sum.AvgBreathRate != 10.33 {
		t.Errorf("expected avg 10.33, got %v", sum.AvgBreathRate)
	}
}

func TestSummarizePassesAHIThroughUnrounded(t *testing.T) {
	d := NewDay("2026-01-04")
	d.Add(sampleWith(t, 12, 5, 0, 0, 4.675, 0))

	sum, ok := d.Summarize(0)
	if !ok {
		t.Fatal("expected a summary")
	}
	if sum.AHI != 4.675 {
		t.Errorf("expected AHI 4.675 untouched, got %v", sum.AHI)
	}
}

func TestSummarizeUsesProvidedTotal(t *testing.T) {
	d := NewDay("2026-01-05")
	d.Add(sampleWith(t, 12, 5, 0, 0, 0, 3000))

	// Caller-provided total wins over the running total from samples.
	sum, ok := d.Summarize(3600)
	if !ok {
		t.Fatal("expected a summary")
	}
	if sum.TotalSleepSecs != 3600 {
		t.Errorf("expected total 3600, got %v", sum.TotalSleepSecs)
	}
}

func TestResetClearsForNewDate(t *testing.T) {
	d := NewDay("2026-01-01")
	d.Add(sampleWith(t, 12, 5, 3, 2, 6.0, 500))

	d.Reset("2026-01-02")
	if d.Date() != "2026-01-02" {
		t.Errorf("expected date 2026-01-02, got %s", d.Date())
	}
	if !d.Empty() {
		t.Error("day should be empty after reset")
	}
	if d.apneas != 0 || d.hypopneas != 0 || d.ahi != 0 || d.TotalSleep() != 0 {
		t.Error("scalars should be zeroed after reset")
	}
	if _, ok := d.Summarize(0); ok {
		t.Error("summarize after reset should report ok=false")
	}
}

func TestSummarizeAfterResetWritesFresh(t *testing.T) {
	d := NewDay("2026-01-01")
	d.Add(sampleWith(t, 20, 10, 0, 0, 0, 0))
	if _, ok := d.Summarize(0); !ok {
		t.Fatal("expected first summary")
	}

	d.Reset("2026-01-02")
	d.Add(sampleWith(t, 30, 4, 0, 0, 0, 0))

	sum, ok := d.Summarize(0)
	if !ok {
		t.Fatal("expected second summary")
	}
	if sum.Date != "2026-01-02" {
		t.Errorf("expected date 2026-01-02, got %s", sum.Date)
	}
	if sum.AvgBreathRate != 30.00 {
		t.Errorf("expected avg 30.00 from fresh data only, got %v", sum.AvgBreathRate)
	}
}

// sampleWith builds a sample with the fields the aggregate cares about.
func sampleWith(t *testing.T, rate float64, peaks, apneas, hypopneas int, ahi, totalSecs float64) Sample {
	t.Helper()
	return Sample{
		Reading: Reading{
			Lower:      -0.5,
			Upper:      0.5,
			Value:      0.1,
			PeaksIn20:  peaks,
			BreathRate: rate,
			Apneas:     apneas,
			Hypopneas:  hypopneas,
			AHI:        ahi,
		},
		TotalSleepSecs: totalSecs,
	}
}
