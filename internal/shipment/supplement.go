package shipment

import (
    "errors"
    "fmt"
    "math"
    "sort"

    "carriercost/internal/zone"
)

// ErrMissingField marks a fatal schema error on an input record.
var ErrMissingField = errors.New("missing required field")

// DimTrigger selects which derived quantity a carrier compares against its
// dimensional-weight threshold.
type DimTrigger string

const (
    TriggerCubic DimTrigger = "cubic"
    TriggerGirth DimTrigger = "girth"
)

// DimensionalRule is a carrier's dimensional-weight policy: when the trigger
// quantity exceeds Threshold, billable weight becomes max(actual, dim),
// where dim = cubic volume / Divisor.
type DimensionalRule struct {
    Trigger   DimTrigger
    Threshold float64
    Divisor   float64
}

func (r DimensionalRule) Validate() error {
    switch r.Trigger {
    case TriggerCubic, TriggerGirth:
    default:
        return fmt.Errorf("dimensional rule: unknown trigger %q", r.Trigger)
    }
    if r.Divisor <= 0 {
        return fmt.Errorf("dimensional rule: divisor must be positive, got %v", r.Divisor)
    }
    return nil
}

// Supplement validates one raw shipment and derives its geometric, zone, and
// billable-weight attributes. Billable weight is always >= actual weight.
func Supplement(s Shipment, r zone.Resolver, dim DimensionalRule) (Supplemented, error) {
    if err := s.Validate(); err != nil {
        return Supplemented{}, err
    }

    dims := []float64{s.LengthIn, s.WidthIn, s.HeightIn}
    sort.Sort(sort.Reverse(sort.Float64Slice(dims)))

    sup := Supplemented{
        Shipment:          s,
        CubicIn:           s.LengthIn * s.WidthIn * s.HeightIn,
        LongestIn:         dims[0],
        SecondLongestIn:   dims[1],
        LengthPlusGirthIn: dims[0] + 2*(dims[1]+dims[2]),
    }

    z, area, tier, err := r.Resolve(s.OriginSite, s.DestZIP, s.DestRegion)
    if err != nil {
        return Supplemented{}, err
    }
    sup.Zone = z
    sup.DeliveryArea = area
    sup.ZoneFallback = tier

    sup.DimWeightLbs = roundLbs(sup.CubicIn / dim.Divisor)

    trigger := sup.CubicIn
    if dim.Trigger == TriggerGirth {
        trigger = sup.LengthPlusGirthIn
    }
    sup.BillableLbs = s.WeightLbs
    if trigger > dim.Threshold && sup.DimWeightLbs > s.WeightLbs {
        sup.BillableLbs = sup.DimWeightLbs
        sup.UsesDimWeight = true
    }
    return sup, nil
}

// roundLbs rounds dim weight up to the next whole pound, matching how
// carriers state dimensional weight on rate cards.
func roundLbs(lbs float64) float64 {
    return math.Ceil(lbs)
}
