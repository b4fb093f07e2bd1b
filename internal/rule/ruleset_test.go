package rule

import (
    "testing"

    "github.com/stretchr/testify/require"

    "carriercost/internal/money"
    "carriercost/internal/rate"
    "carriercost/internal/shipment"
)

func validSet(t *testing.T, rules ...Rule) *Set {
    t.Helper()
    tbl, err := rate.NewTable([]rate.Bracket{
        {LowerLbs: 0, UpperLbs: 70, Zone: 4, RateCents: 1000},
    })
    require.NoError(t, err)
    return &Set{
        Carrier: "brightpost",
        Service: "ground",
        Version: "2025-09",
        Rules:   rules,
        Rates:   tbl,
        Pct:     Percentage{Name: "fuel", Bps: 1600, Basis: BasisSubtotal},
        Dim:     shipment.DimensionalRule{Trigger: shipment.TriggerCubic, Threshold: 1728, Divisor: 139},
    }
}

func TestValidateOK(t *testing.T) {
    s := validSet(t,
        Rule{Name: "ahs", Cost: FixedCost(100)},
        Rule{Name: "peak_ahs", Cost: FixedCost(200), DependsOn: "ahs"},
    )
    require.NoError(t, s.Validate())
}

func TestValidateRequiresVersion(t *testing.T) {
    s := validSet(t)
    s.Version = " "
    require.ErrorContains(t, s.Validate(), "version required")
}

func TestValidateDuplicateName(t *testing.T) {
    s := validSet(t,
        Rule{Name: "ahs", Cost: FixedCost(100)},
        Rule{Name: "ahs", Cost: FixedCost(200)},
    )
    require.ErrorContains(t, s.Validate(), "duplicate rule name")
}

func TestValidateDanglingDependency(t *testing.T) {
    s := validSet(t, Rule{Name: "peak_ahs", Cost: FixedCost(200), DependsOn: "nope"})
    require.ErrorContains(t, s.Validate(), `depends on unknown rule "nope"`)
}

func TestValidateChainedDependencyRejected(t *testing.T) {
    s := validSet(t,
        Rule{Name: "a", Cost: FixedCost(1)},
        Rule{Name: "b", Cost: FixedCost(1), DependsOn: "a"},
        Rule{Name: "c", Cost: FixedCost(1), DependsOn: "b"},
    )
    require.ErrorContains(t, s.Validate(), "depends on dependent rule")
}

func TestValidateGroupPriorityClash(t *testing.T) {
    s := validSet(t,
        Rule{Name: "oversize", Cost: FixedCost(1), Group: "handling", Priority: 1},
        Rule{Name: "ahs", Cost: FixedCost(1), Group: "handling", Priority: 1},
    )
    require.ErrorContains(t, s.Validate(), "share priority 1")
}

func TestValidateGroupPriorityClashScopedToPhase(t *testing.T) {
    // Same priority in the same group name is fine across phases: dependent
    // rules resolve exclusivity only against other dependent rules.
    s := validSet(t,
        Rule{Name: "ahs", Cost: FixedCost(1), Group: "handling", Priority: 1},
        Rule{Name: "peak_ahs", Cost: FixedCost(1), Group: "handling", Priority: 1, DependsOn: "ahs"},
    )
    require.NoError(t, s.Validate())
}

func TestValidateAllocationRateRange(t *testing.T) {
    s := validSet(t, Rule{Name: "resi", Cost: FixedCost(1), AllocationRate: 1.2})
    require.ErrorContains(t, s.Validate(), "allocation rate")
}

func TestValidateMissingCost(t *testing.T) {
    s := validSet(t, Rule{Name: "ahs"})
    require.ErrorContains(t, s.Validate(), "has no cost")
}

func TestValidateBadPercentBasis(t *testing.T) {
    s := validSet(t)
    s.Pct.Basis = "rate"
    require.ErrorContains(t, s.Validate(), "percentage basis")
}

func TestPerPoundCost(t *testing.T) {
    fn := PerPoundCost(12)
    s := shipment.Supplemented{BillableLbs: 30}
    require.Equal(t, money.Cents(360), fn(s))
}
