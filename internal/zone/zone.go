package zone

import (
    "encoding/json"
    "errors"
    "fmt"
)

// DeliveryArea is the secondary delivery-area classification attached to a
// destination, used by carrier surcharge rules (DAS-style surcharges).
type DeliveryArea string

const (
    AreaNone     DeliveryArea = ""
    AreaStandard DeliveryArea = "standard"
    AreaExtended DeliveryArea = "extended"
    AreaRemote   DeliveryArea = "remote"
)

// FallbackTier records which tier of the lookup chain produced a zone.
// Exposed on every result row for audit.
type FallbackTier int

const (
    TierExact FallbackTier = iota
    TierRegion
    TierDefault
)

func (t FallbackTier) String() string {
    switch t {
    case TierExact:
        return "exact"
    case TierRegion:
        return "region"
    case TierDefault:
        return "default"
    default:
        return "unknown"
    }
}

// MarshalJSON emits the tier name; output rows are read by people auditing
// fallback usage, not by anything that wants the ordinal.
func (t FallbackTier) MarshalJSON() ([]byte, error) {
    return json.Marshal(t.String())
}

// ErrNoZone is returned when every tier of the fallback chain misses.
var ErrNoZone = errors.New("no zone mapping for destination")

// Resolver maps (origin site, destination) to a shipping zone.
// Zones are carrier- and origin-site-specific.
type Resolver interface {
    Resolve(originSite, destZIP, destRegion string) (zone int, area DeliveryArea, tier FallbackTier, err error)
}

// Mapping is one exact reference row: (destination code, origin site) -> zone
// plus the delivery-area classification for that destination.
type Mapping struct {
    OriginSite string
    DestZIP    string
    Zone       int
    Area       DeliveryArea
}

// RegionMapping is one region-level fallback row: the most frequent zone
// observed for the destination's broader region, scoped by origin site.
type RegionMapping struct {
    OriginSite string
    Region     string
    Zone       int
}

type exactKey struct{ origin, zip string }
type regionKey struct{ origin, region string }

type exactEntry struct {
    zone int
    area DeliveryArea
}

// Table is an in-memory Resolver built from reference rows.
// Lookup falls through exact -> region -> default zone.
type Table struct {
    exact       map[exactKey]exactEntry
    region      map[regionKey]int
    defaultZone int // 0 means no default configured
}

func NewTable(exact []Mapping, regions []RegionMapping, defaultZone int) *Table {
    t := &Table{
        exact:       make(map[exactKey]exactEntry, len(exact)),
        region:      make(map[regionKey]int, len(regions)),
        defaultZone: defaultZone,
    }
    for _, m := range exact {
        t.exact[exactKey{m.OriginSite, m.DestZIP}] = exactEntry{zone: m.Zone, area: m.Area}
    }
    for _, m := range regions {
        t.region[regionKey{m.OriginSite, m.Region}] = m.Zone
    }
    return t
}

func (t *Table) Resolve(originSite, destZIP, destRegion string) (int, DeliveryArea, FallbackTier, error) {
    if e, ok := t.exact[exactKey{originSite, destZIP}]; ok {
        return e.zone, e.area, TierExact, nil
    }
    if z, ok := t.region[regionKey{originSite, destRegion}]; ok {
        return z, AreaNone, TierRegion, nil
    }
    if t.defaultZone > 0 {
        return t.defaultZone, AreaNone, TierDefault, nil
    }
    return 0, AreaNone, TierDefault, fmt.Errorf("%w: origin=%s zip=%s region=%s", ErrNoZone, originSite, destZIP, destRegion)
}

// Default returns the configured last-resort zone, 0 when unset.
func (t *Table) Default() int { return t.defaultZone }

// Zones returns the distinct zones reachable through this table, used to
// cross-check rate bracket coverage at construction time.
func (t *Table) Zones() []int {
    seen := map[int]bool{}
    var zones []int
    for _, e := range t.exact {
        if !seen[e.zone] {
            seen[e.zone] = true
            zones = append(zones, e.zone)
        }
    }
    for _, z := range t.region {
        if !seen[z] {
            seen[z] = true
            zones = append(zones, z)
        }
    }
    if t.defaultZone > 0 && !seen[t.defaultZone] {
        zones = append(zones, t.defaultZone)
    }
    return zones
}
