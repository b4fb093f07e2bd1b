package rule

import (
    "errors"
    "fmt"
    "strings"

    "carriercost/internal/rate"
    "carriercost/internal/shipment"
)

// PercentBasis selects what a carrier's percentage surcharge applies to.
type PercentBasis string

const (
    // BasisSubtotal applies the percentage to base rate plus all triggered
    // surcharges. This is the normal carrier behavior (fuel on everything).
    BasisSubtotal PercentBasis = "subtotal"
    // BasisBase applies the percentage to the base rate only.
    BasisBase PercentBasis = "base"
)

// Percentage is a carrier's percentage surcharge definition (e.g. fuel).
type Percentage struct {
    Name  string
    Bps   int
    Basis PercentBasis
}

// Set is one carrier/service rule card compiled into evaluable form:
// ordered rules, a rate table, the percentage surcharge, and the carrier's
// dimensional-weight policy. Immutable after construction; shared read-only
// across all evaluation shards.
type Set struct {
    Carrier string
    Service string
    // Version stamps every output row for reproducibility and safe cache
    // invalidation downstream.
    Version string

    Rules []Rule
    Rates *rate.Table
    Pct   Percentage
    Dim   shipment.DimensionalRule
}

// Key identifies the set in a registry.
func (s *Set) Key() string { return s.Carrier + "/" + s.Service }

// Validate enforces rule-set construction invariants. Any violation is
// fatal at startup, never discovered per row mid-batch.
func (s *Set) Validate() error {
    if strings.TrimSpace(s.Carrier) == "" {
        return errors.New("rule set: carrier required")
    }
    if strings.TrimSpace(s.Service) == "" {
        return errors.New("rule set: service required")
    }
    if strings.TrimSpace(s.Version) == "" {
        return errors.New("rule set: version required")
    }
    if s.Rates == nil {
        return fmt.Errorf("rule set %s: rate table required", s.Key())
    }
    if err := s.Dim.Validate(); err != nil {
        return fmt.Errorf("rule set %s: %w", s.Key(), err)
    }
    switch s.Pct.Basis {
    case BasisSubtotal, BasisBase:
    default:
        return fmt.Errorf("rule set %s: unknown percentage basis %q", s.Key(), s.Pct.Basis)
    }
    if s.Pct.Bps < 0 {
        return fmt.Errorf("rule set %s: negative percentage surcharge", s.Key())
    }

    byName := make(map[string]*Rule, len(s.Rules))
    for i := range s.Rules {
        r := &s.Rules[i]
        if strings.TrimSpace(r.Name) == "" {
            return fmt.Errorf("rule set %s: rule %d has no name", s.Key(), i)
        }
        if _, dup := byName[r.Name]; dup {
            return fmt.Errorf("rule set %s: duplicate rule name %q", s.Key(), r.Name)
        }
        byName[r.Name] = r
        if r.Cost == nil {
            return fmt.Errorf("rule set %s: rule %q has no cost", s.Key(), r.Name)
        }
        if r.AllocationRate < 0 || r.AllocationRate > 1 {
            return fmt.Errorf("rule set %s: rule %q allocation rate %v outside [0,1]", s.Key(), r.Name, r.AllocationRate)
        }
        if r.MinBillableLbs < 0 {
            return fmt.Errorf("rule set %s: rule %q negative min billable weight", s.Key(), r.Name)
        }
        if r.Window != nil {
            if err := r.Window.Validate(); err != nil {
                return fmt.Errorf("rule set %s: rule %q: %w", s.Key(), r.Name, err)
            }
        }
    }

    // Dependencies must resolve, and only one level deep: a dependent rule
    // cannot itself be depended on.
    for i := range s.Rules {
        r := &s.Rules[i]
        if r.DependsOn == "" {
            continue
        }
        parent, ok := byName[r.DependsOn]
        if !ok {
            return fmt.Errorf("rule set %s: rule %q depends on unknown rule %q", s.Key(), r.Name, r.DependsOn)
        }
        if parent.DependsOn != "" {
            return fmt.Errorf("rule set %s: rule %q depends on dependent rule %q", s.Key(), r.Name, r.DependsOn)
        }
    }

    // Exclusivity groups need distinct priorities so the winner is
    // deterministic regardless of declaration order.
    type groupPhase struct {
        group     string
        dependent bool
    }
    prios := make(map[groupPhase]map[int]string)
    for i := range s.Rules {
        r := &s.Rules[i]
        if r.Group == "" {
            continue
        }
        k := groupPhase{group: r.Group, dependent: r.DependsOn != ""}
        if prios[k] == nil {
            prios[k] = make(map[int]string)
        }
        if other, clash := prios[k][r.Priority]; clash {
            return fmt.Errorf("rule set %s: rules %q and %q share priority %d in group %q", s.Key(), other, r.Name, r.Priority, r.Group)
        }
        prios[k][r.Priority] = r.Name
    }
    return nil
}

// RuleNames returns the rule names in declaration order, the column order
// for output rows.
func (s *Set) RuleNames() []string {
    names := make([]string, len(s.Rules))
    for i, r := range s.Rules {
        names[i] = r.Name
    }
    return names
}
