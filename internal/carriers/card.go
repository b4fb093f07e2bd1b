// Package carriers turns JSON rule cards into validated, evaluable rule
// sets. A card is pure configuration: every price, threshold, window, and
// allocation rate lives here, never in evaluation logic, so rate-card
// revisions are data changes.
package carriers

import (
    "bytes"
    "encoding/json"
    "fmt"
    "time"

    "carriercost/internal/money"
    "carriercost/internal/rate"
    "carriercost/internal/rule"
)

// Card is the persisted form of one carrier/service rule set.
type Card struct {
    Carrier     string         `json:"carrier"`
    Service     string         `json:"service"`
    Version     string         `json:"version"`
    Dimensional DimConfig      `json:"dimensional"`
    Percentage  PctConfig      `json:"percentage"`
    Zones       ZoneConfig     `json:"zones"`
    Brackets    []rate.Bracket `json:"brackets"`
    Rules       []RuleConfig   `json:"rules"`
}

type DimConfig struct {
    Trigger   string  `json:"trigger"` // "cubic" or "girth"
    Threshold float64 `json:"threshold"`
    Divisor   float64 `json:"divisor"`
}

type PctConfig struct {
    Name  string `json:"name"`
    Bps   int    `json:"bps"`
    Basis string `json:"basis"` // "subtotal" or "base"
}

type ZoneConfig struct {
    Default int              `json:"default"`
    Exact   []ZoneExactRow   `json:"exact"`
    Regions []ZoneRegionRow  `json:"regions"`
}

type ZoneExactRow struct {
    Origin string `json:"origin"`
    ZIP    string `json:"zip"`
    Zone   int    `json:"zone"`
    Area   string `json:"area,omitempty"`
}

type ZoneRegionRow struct {
    Origin string `json:"origin"`
    Region string `json:"region"`
    Zone   int    `json:"zone"`
}

// RuleConfig is one kind-tagged rule variant on a card.
type RuleConfig struct {
    Kind string `json:"kind"` // threshold | oversize | demand | dependent | allocated
    Name string `json:"name"`

    When      *Predicate    `json:"when,omitempty"`
    Window    *WindowConfig `json:"window,omitempty"`
    DependsOn string        `json:"depends_on,omitempty"`

    ListCents   int64 `json:"list_cents,omitempty"`
    DiscountBps int   `json:"discount_bps,omitempty"`
    PerLbCents  int64 `json:"per_lb_cents,omitempty"`

    PeakListCents int64         `json:"peak_list_cents,omitempty"`
    Peak          *WindowConfig `json:"peak,omitempty"`

    Group          string  `json:"group,omitempty"`
    Priority       int     `json:"priority,omitempty"`
    MinBillableLbs float64 `json:"min_billable_lbs,omitempty"`
    FlatRateCents  int64   `json:"flat_rate_cents,omitempty"`
    AllocationRate float64 `json:"allocation_rate,omitempty"`
}

// Predicate is the declarative condition DSL: a single field comparison or
// an "all" conjunction.
type Predicate struct {
    Field string      `json:"field,omitempty"`
    Op    string      `json:"op,omitempty"` // gt | ge | lt | le | eq
    Value float64     `json:"value,omitempty"`
    Area  string      `json:"area,omitempty"` // for delivery_area comparisons
    All   []Predicate `json:"all,omitempty"`
}

// WindowConfig holds "MM-DD" endpoints.
type WindowConfig struct {
    Start string `json:"start"`
    End   string `json:"end"`
}

// ParseCard decodes and sanity-checks a card document. Unknown fields are
// rejected so a typo in a card fails at load, not silently.
func ParseCard(data []byte) (Card, error) {
    dec := json.NewDecoder(bytes.NewReader(data))
    dec.DisallowUnknownFields()
    var c Card
    if err := dec.Decode(&c); err != nil {
        return Card{}, fmt.Errorf("parse rule card: %w", err)
    }
    return c, nil
}

func parseMonthDay(s string) (rule.MonthDay, error) {
    var m, d int
    if _, err := fmt.Sscanf(s, "%d-%d", &m, &d); err != nil {
        return rule.MonthDay{}, fmt.Errorf("bad month-day %q (want MM-DD)", s)
    }
    md := rule.MonthDay{Month: time.Month(m), Day: d}
    if err := md.Validate(); err != nil {
        return rule.MonthDay{}, fmt.Errorf("bad month-day %q: %w", s, err)
    }
    return md, nil
}

func (w *WindowConfig) compile() (*rule.Window, error) {
    if w == nil {
        return nil, nil
    }
    start, err := parseMonthDay(w.Start)
    if err != nil {
        return nil, err
    }
    end, err := parseMonthDay(w.End)
    if err != nil {
        return nil, err
    }
    return &rule.Window{Start: start, End: end}, nil
}

func listCost(listCents int64, discountBps int) money.Cents {
    return money.Cents(listCents).Discounted(discountBps)
}
