// Package engine is the carrier-agnostic phase orchestrator: it turns a
// rule set plus a supplemented shipment into itemized cost columns through
// a fixed sequence of pure stages.
package engine

import (
    "fmt"
    "sort"

    "carriercost/internal/money"
    "carriercost/internal/rule"
    "carriercost/internal/shipment"
)

// RuleOutcome is one rule's contribution to a result row.
type RuleOutcome struct {
    Triggered bool        `json:"triggered"`
    CostCents money.Cents `json:"cost_cents"`
}

// Result is one output row: every supplemented field plus per-rule outcomes
// and the rolled-up cost columns, stamped with the rule set version.
type Result struct {
    shipment.Supplemented

    // BilledLbs is the billable weight actually used for rate lookup, after
    // min-billable-weight side effects. Never below BillableLbs.
    BilledLbs float64 `json:"billed_lbs"`

    Rules map[string]RuleOutcome `json:"rules"`

    CostBase         money.Cents `json:"cost_base_cents"`
    CostSubtotal     money.Cents `json:"cost_subtotal_cents"`
    CostPctSurcharge money.Cents `json:"cost_percentage_surcharge_cents"`
    CostTotal        money.Cents `json:"cost_total_cents"`

    RuleSetVersion string `json:"rule_set_version"`
}

// Evaluate runs the staged pipeline for one shipment:
//
//  1. phase BASE: rules with no dependency, exclusivity groups resolved by
//     ascending priority
//  2. phase DEPENDENT: rules gated on a base rule's triggered flag
//  3. billable-weight side effects (highest triggered minimum wins)
//  4. rate lookup on the final billed weight, or a flat override
//  5. subtotal, percentage surcharge, total
//  6. version stamp
//
// Conditions are evaluated against the original supplemented fields only;
// a rule never sees the billed weight its own side effect produced.
func Evaluate(set *rule.Set, s shipment.Supplemented) (Result, error) {
    var base, dependent []*rule.Rule
    for i := range set.Rules {
        r := &set.Rules[i]
        if r.DependsOn == "" {
            base = append(base, r)
        } else {
            dependent = append(dependent, r)
        }
    }

    triggered := make(map[string]bool, len(set.Rules))

    holds := func(r *rule.Rule) bool {
        if r.Window != nil && !r.Window.Contains(s.ShipDate) {
            return false
        }
        if r.When != nil && !r.When(s) {
            return false
        }
        return true
    }
    resolvePhase(base, triggered, holds)
    resolvePhase(dependent, triggered, func(r *rule.Rule) bool {
        return triggered[r.DependsOn] && holds(r)
    })

    outcomes := make(map[string]RuleOutcome, len(set.Rules))
    var surcharges money.Cents
    billed := s.BillableLbs
    var flat money.Cents
    for i := range set.Rules {
        r := &set.Rules[i]
        o := RuleOutcome{Triggered: triggered[r.Name]}
        if o.Triggered {
            o.CostCents = r.Cost(s)
            surcharges += o.CostCents
            if r.MinBillableLbs > billed {
                billed = r.MinBillableLbs
            }
            if r.FlatRateCents > flat {
                flat = r.FlatRateCents
            }
        }
        outcomes[r.Name] = o
    }

    var baseRate money.Cents
    if flat > 0 {
        baseRate = flat
    } else {
        var err error
        baseRate, err = set.Rates.Lookup(billed, s.Zone)
        if err != nil {
            return Result{}, fmt.Errorf("rate lookup for %s to %s: %w", set.Key(), s.DestZIP, err)
        }
    }

    subtotal := baseRate + surcharges
    pctBase := subtotal
    if set.Pct.Basis == rule.BasisBase {
        pctBase = baseRate
    }
    pct := pctBase.Percent(set.Pct.Bps)

    return Result{
        Supplemented:     s,
        BilledLbs:        billed,
        Rules:            outcomes,
        CostBase:         baseRate,
        CostSubtotal:     subtotal,
        CostPctSurcharge: pct,
        CostTotal:        subtotal + pct,
        RuleSetVersion:   set.Version,
    }, nil
}

// resolvePhase sets triggered flags for one phase. Ungrouped rules stack
// freely; within an exclusivity group only the lowest-priority-number rule
// whose condition holds triggers, independent of declaration order.
func resolvePhase(rules []*rule.Rule, triggered map[string]bool, holds func(*rule.Rule) bool) {
    groups := make(map[string][]*rule.Rule)
    for _, r := range rules {
        if r.Group == "" {
            triggered[r.Name] = holds(r)
            continue
        }
        groups[r.Group] = append(groups[r.Group], r)
    }
    for _, members := range groups {
        sort.Slice(members, func(i, j int) bool {
            if members[i].Priority != members[j].Priority {
                return members[i].Priority < members[j].Priority
            }
            return members[i].Name < members[j].Name
        })
        won := false
        for _, r := range members {
            if !won && holds(r) {
                triggered[r.Name] = true
                won = true
            } else {
                triggered[r.Name] = false
            }
        }
    }
}
