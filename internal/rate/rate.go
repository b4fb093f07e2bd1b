package rate

import (
    "errors"
    "fmt"
    "sort"

    "carriercost/internal/money"
)

// Bracket is one rate table row: (lower exclusive, upper inclusive] weight
// range for one zone. Every representable billable weight must fall in
// exactly one bracket per zone.
type Bracket struct {
    LowerLbs  float64     `json:"lower_lbs"`
    UpperLbs  float64     `json:"upper_lbs"`
    Zone      int         `json:"zone"`
    RateCents money.Cents `json:"rate_cents"`
}

// ErrAboveMaxBracket is returned when a billable weight lands above every
// bracket for its zone. This is a configuration gap and must fail loudly;
// the lookup never snaps to the nearest bracket.
var ErrAboveMaxBracket = errors.New("billable weight above rate table coverage")

// ErrUnknownZone is returned for a zone with no brackets at all.
var ErrUnknownZone = errors.New("no rate brackets for zone")

// Table is a validated, immutable base-rate lookup. Construct once per
// carrier/service and share read-only across evaluation shards.
type Table struct {
    byZone map[int][]Bracket
}

// NewTable validates bracket coverage and builds the lookup. Per zone the
// brackets must start at 0 and tile with no gaps and no overlaps; any
// violation is a construction-time error, never a per-row surprise.
func NewTable(brackets []Bracket) (*Table, error) {
    if len(brackets) == 0 {
        return nil, errors.New("rate table: no brackets")
    }
    byZone := make(map[int][]Bracket)
    for _, b := range brackets {
        if b.UpperLbs <= b.LowerLbs {
            return nil, fmt.Errorf("rate table: zone %d bracket (%v, %v] is empty", b.Zone, b.LowerLbs, b.UpperLbs)
        }
        if b.RateCents < 0 {
            return nil, fmt.Errorf("rate table: zone %d bracket (%v, %v] has negative rate", b.Zone, b.LowerLbs, b.UpperLbs)
        }
        byZone[b.Zone] = append(byZone[b.Zone], b)
    }
    for z, bs := range byZone {
        sort.Slice(bs, func(i, j int) bool { return bs[i].LowerLbs < bs[j].LowerLbs })
        if bs[0].LowerLbs != 0 {
            return nil, fmt.Errorf("rate table: zone %d coverage starts at %v, not 0", z, bs[0].LowerLbs)
        }
        for i := 1; i < len(bs); i++ {
            switch {
            case bs[i].LowerLbs > bs[i-1].UpperLbs:
                return nil, fmt.Errorf("rate table: zone %d gap between %v and %v", z, bs[i-1].UpperLbs, bs[i].LowerLbs)
            case bs[i].LowerLbs < bs[i-1].UpperLbs:
                return nil, fmt.Errorf("rate table: zone %d overlap at %v", z, bs[i].LowerLbs)
            }
        }
        byZone[z] = bs
    }
    return &Table{byZone: byZone}, nil
}

// Lookup returns the base rate for (billable weight, zone).
func (t *Table) Lookup(weightLbs float64, zone int) (money.Cents, error) {
    bs, ok := t.byZone[zone]
    if !ok {
        return 0, fmt.Errorf("%w: zone %d", ErrUnknownZone, zone)
    }
    // Brackets are (lower, upper]: a 1 lb package in a (0, 1] bracket hits
    // that bracket, not the next.
    i := sort.Search(len(bs), func(i int) bool { return weightLbs <= bs[i].UpperLbs })
    if i == len(bs) {
        return 0, fmt.Errorf("%w: %v lbs in zone %d (max %v)", ErrAboveMaxBracket, weightLbs, zone, bs[len(bs)-1].UpperLbs)
    }
    return bs[i].RateCents, nil
}

// MaxWeight returns the top of coverage for a zone, 0 if the zone is unknown.
func (t *Table) MaxWeight(zone int) float64 {
    bs, ok := t.byZone[zone]
    if !ok {
        return 0
    }
    return bs[len(bs)-1].UpperLbs
}

// Covers reports whether the table has any brackets for the zone.
func (t *Table) Covers(zone int) bool {
    _, ok := t.byZone[zone]
    return ok
}

// Zones returns the zones with bracket coverage, ascending.
func (t *Table) Zones() []int {
    zones := make([]int, 0, len(t.byZone))
    for z := range t.byZone {
        zones = append(zones, z)
    }
    sort.Ints(zones)
    return zones
}
