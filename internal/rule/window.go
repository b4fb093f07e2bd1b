package rule

import (
    "fmt"
    "time"

    "carriercost/internal/money"
    "carriercost/internal/shipment"
)

// MonthDay is a calendar point without a year, e.g. Sept 27.
type MonthDay struct {
    Month time.Month
    Day   int
}

func (d MonthDay) Validate() error {
    if d.Month < time.January || d.Month > time.December {
        return fmt.Errorf("month out of range: %d", d.Month)
    }
    if d.Day < 1 || d.Day > 31 {
        return fmt.Errorf("day out of range: %d", d.Day)
    }
    return nil
}

// ordinal gives a comparable day-of-year-ish value; exact calendar lengths
// do not matter, only ordering within a year.
func (d MonthDay) ordinal() int { return int(d.Month)*100 + d.Day }

func (d MonthDay) String() string { return fmt.Sprintf("%02d-%02d", d.Month, d.Day) }

// Window is a seasonal date range, inclusive of both endpoints. A window
// whose start is numerically after its end wraps across the December/January
// boundary (e.g. Sept 27 through Jan 16).
type Window struct {
    Start MonthDay
    End   MonthDay
}

// Contains reports whether the date falls inside the window. Only month and
// day are considered; the year is irrelevant.
func (w Window) Contains(t time.Time) bool {
    d := MonthDay{Month: t.Month(), Day: t.Day()}.ordinal()
    start, end := w.Start.ordinal(), w.End.ordinal()
    if start <= end {
        return d >= start && d <= end
    }
    // Wrapping window: inside when on or after the start, or on or before
    // the end of the following year.
    return d >= start || d <= end
}

func (w Window) Validate() error {
    if err := w.Start.Validate(); err != nil {
        return fmt.Errorf("window start: %w", err)
    }
    if err := w.End.Validate(); err != nil {
        return fmt.Errorf("window end: %w", err)
    }
    return nil
}

// SteppedCost builds a CostFn for a demand surcharge whose price steps up
// inside a peak sub-window (e.g. a cheaper early-season rate, then the peak
// rate from late November through the holidays).
func SteppedCost(base CostFn, peak *Window, peakCost CostFn) CostFn {
    if peak == nil || peakCost == nil {
        return base
    }
    p := *peak
    return func(s shipment.Supplemented) money.Cents {
        if p.Contains(s.ShipDate) {
            return peakCost(s)
        }
        return base(s)
    }
}
