package sleep

import "math"

// Day accumulates accepted samples for one calendar date. Breath rates and
// peak counts are kept as ordered sequences for averaging; the event
// counters and AHI track the latest sensor-reported value, since the sensor
// already reports them as running totals.
type Day struct {
	date         string
	rates        []float64
	peaks        []int
	apneas       int
	hypopneas    int
	breathsIn20  int
	ahi          float64
	longestPause float64
	totalSleep   float64
}

// NewDay creates an empty aggregate for the given date stamp.
func NewDay(date string) *Day {
	return &Day{date: date}
}

// Date returns the date stamp the aggregate is collecting under.
func (d *Day) Date() string {
	return d.date
}

// Empty reports whether no samples have been recorded.
func (d *Day) Empty() bool {
	return len(d.rates) == 0
}

// SampleCount returns the number of samples recorded so far.
func (d *Day) SampleCount() int {
	return len(d.rates)
}

// TotalSleep returns the cumulative sleep seconds carried by the most
// recent sample, zero if none.
func (d *Day) TotalSleep() float64 {
	return d.totalSleep
}

// Add folds one accepted sample into the aggregate.
func (d *Day) Add(s Sample) {
	d.rates = append(d.rates, s.BreathRate)
	d.peaks = append(d.peaks, s.PeaksIn20)
	d.apneas = s.Apneas
	d.hypopneas = s.Hypopneas
	d.breathsIn20 = s.PeaksIn20
	d.ahi = s.AHI
	d.totalSleep = s.TotalSleepSecs
}

// Reset clears the aggregate for a new date.
func (d *Day) Reset(date string) {
	*d = Day{date: date}
}

// Summarize materializes the aggregate into a Summary record. ok is false
// when the aggregate holds no samples, in which case nothing should be
// persisted. totalSleepSecs is an argument because the caller decides
// whether the running total or a freshly finalized session total applies.
func (d *Day) Summarize(totalSleepSecs float64) (Summary, bool) {
	if len(d.rates) == 0 {
		return Summary{}, false
	}

	minRate := d.rates[0]
	maxRate := d.rates[0]
	sum := 0.0
	for _, r := range d.rates {
		if r < minRate {
			minRate = r
		}
		if r > maxRate {
			maxRate = r
		}
		sum += r
	}

	peakSum := 0
	for _, p := range d.peaks {
		peakSum += p
	}

	return Summary{
		Date:           d.date,
		AvgBreathRate:  round2(sum / float64(len(d.rates))),
		MinBreathRate:  round2(minRate),
		MaxBreathRate:  round2(maxRate),
		AvgPeaksIn20:   round2(float64(peakSum) / float64(len(d.peaks))),
		ApneaEvents:    d.apneas,
		HypopneaEvents: d.hypopneas,
		AHI:            d.ahi,
		LongestPause:   d.longestPause,
		TotalSleepSecs: totalSleepSecs,
	}, true
}

// round2 rounds to two decimal places, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
