// Package rule defines the declarative surcharge rule model: pure
// condition/cost functions plus the exclusivity, dependency, side-effect,
// and allocation metadata the phase orchestrator consumes.
package rule

import (
    "carriercost/internal/money"
    "carriercost/internal/shipment"
)

// Cond is a pure predicate over supplemented-shipment fields.
type Cond func(s shipment.Supplemented) bool

// CostFn computes a rule's cost for one shipment. Must be pure; date
// dependence comes from the shipment's own ship date.
type CostFn func(s shipment.Supplemented) money.Cents

// Rule is one carrier-scoped surcharge rule. Rules are immutable after rule
// set construction and shared read-only across evaluation shards.
type Rule struct {
    // Name identifies the rule inside its rule set and names the output
    // columns on every result row.
    Name string

    // When is the trigger predicate. nil means unconditionally true, which
    // is how allocated surcharges are expressed.
    When Cond

    // Cost computes the rule's charge when triggered. For allocated rules
    // the allocation rate is already baked in.
    Cost CostFn

    // Window restricts the rule to a seasonal date range. nil means
    // year-round. Applied on top of When in both phases.
    Window *Window

    // Group names an exclusivity group; at most one member of a group may
    // trigger per shipment. Empty means the rule stacks freely.
    Group string

    // Priority orders members of an exclusivity group; the lowest number
    // among the members whose conditions hold wins. Meaningless without
    // Group.
    Priority int

    // DependsOn names a base rule whose triggered flag gates this rule,
    // forcing it into the dependent evaluation phase.
    DependsOn string

    // MinBillableLbs raises billable weight to at least this value when the
    // rule triggers, before rate lookup. Zero means no side effect.
    MinBillableLbs float64

    // FlatRateCents, when positive on a triggered rule, substitutes for the
    // weight/zone base-rate lookup (oversize-style flat pricing).
    FlatRateCents money.Cents

    // AllocationRate marks a probabilistically allocated surcharge. Zero
    // means deterministic. Recorded for audit; the expected-cost blend is
    // applied inside Cost at construction.
    AllocationRate float64
}

// FixedCost returns a CostFn for a flat amount.
func FixedCost(c money.Cents) CostFn {
    return func(shipment.Supplemented) money.Cents { return c }
}

// PerPoundCost returns a CostFn that scales with billable weight.
func PerPoundCost(perLb money.Cents) CostFn {
    return func(s shipment.Supplemented) money.Cents {
        return perLb.Mul(s.BillableLbs)
    }
}
