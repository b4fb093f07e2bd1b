package engine

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "carriercost/internal/money"
    "carriercost/internal/rate"
    "carriercost/internal/rule"
    "carriercost/internal/shipment"
    "carriercost/internal/zone"
)

func testZones() zone.Resolver {
    return zone.NewTable(
        []zone.Mapping{
            {OriginSite: "KY1", DestZIP: "40202", Zone: 4, Area: zone.AreaStandard},
            {OriginSite: "KY1", DestZIP: "59718", Zone: 7, Area: zone.AreaExtended},
        },
        []zone.RegionMapping{{OriginSite: "KY1", Region: "MT", Zone: 7}},
        4,
    )
}

func testRates(t *testing.T) *rate.Table {
    t.Helper()
    var brackets []rate.Bracket
    for _, z := range []int{4, 7} {
        brackets = append(brackets,
            rate.Bracket{LowerLbs: 0, UpperLbs: 1, Zone: z, RateCents: 545},
            rate.Bracket{LowerLbs: 1, UpperLbs: 5, Zone: z, RateCents: 760},
            rate.Bracket{LowerLbs: 5, UpperLbs: 30, Zone: z, RateCents: 1450},
            rate.Bracket{LowerLbs: 30, UpperLbs: 70, Zone: z, RateCents: 1890},
        )
    }
    tbl, err := rate.NewTable(brackets)
    require.NoError(t, err)
    return tbl
}

// testSet builds a deterministic rule card: an oversize/handling exclusivity
// pair, a seasonal dependent rule, and a delivery-area rule.
func testSet(t *testing.T) *rule.Set {
    t.Helper()
    peakWindow := &rule.Window{
        Start: rule.MonthDay{Month: time.September, Day: 27},
        End:   rule.MonthDay{Month: time.January, Day: 16},
    }
    peakStep := &rule.Window{
        Start: rule.MonthDay{Month: time.November, Day: 24},
        End:   rule.MonthDay{Month: time.December, Day: 28},
    }
    s := &rule.Set{
        Carrier: "brightpost",
        Service: "ground",
        Version: "2025-09",
        Rules: []rule.Rule{
            {
                Name:          "oversize",
                Group:         "handling",
                Priority:      1,
                When:          func(s shipment.Supplemented) bool { return s.LengthPlusGirthIn > 130 },
                Cost:          rule.FixedCost(0),
                FlatRateCents: 9500,
            },
            {
                Name:           "additional_handling",
                Group:          "handling",
                Priority:       2,
                When:           func(s shipment.Supplemented) bool { return s.LongestIn > 48 },
                Cost:           rule.FixedCost(money.Cents(2400).Discounted(2500)), // $18.00
                MinBillableLbs: 30,
            },
            {
                Name:      "demand_ahs",
                DependsOn: "additional_handling",
                Window:    peakWindow,
                Cost:      rule.SteppedCost(rule.FixedCost(399), peakStep, rule.FixedCost(699)),
            },
            {
                Name: "das_extended",
                When: func(s shipment.Supplemented) bool { return s.DeliveryArea == zone.AreaExtended },
                Cost: rule.FixedCost(390),
            },
        },
        Rates: testRates(t),
        Pct:   rule.Percentage{Name: "fuel", Bps: 1600, Basis: rule.BasisSubtotal},
        Dim:   shipment.DimensionalRule{Trigger: shipment.TriggerCubic, Threshold: 1728, Divisor: 139},
    }
    require.NoError(t, s.Validate())
    return s
}

func ship(l, w, h, lbs float64, zip string, date time.Time) shipment.Shipment {
    region := "KY"
    if zip == "59718" {
        region = "MT"
    }
    return shipment.Shipment{
        ShipDate:   date,
        OriginSite: "KY1",
        DestZIP:    zip,
        DestRegion: region,
        LengthIn:   l,
        WidthIn:    w,
        HeightIn:   h,
        WeightLbs:  lbs,
    }
}

func supplemented(t *testing.T, set *rule.Set, s shipment.Shipment) shipment.Supplemented {
    t.Helper()
    sup, err := shipment.Supplement(s, testZones(), set.Dim)
    require.NoError(t, err)
    return sup
}

var june10 = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

func TestTinyPackageNoSurcharges(t *testing.T) {
    set := testSet(t)
    res, err := Evaluate(set, supplemented(t, set, ship(1, 1, 1, 1, "40202", june10)))
    require.NoError(t, err)

    for name, o := range res.Rules {
        assert.False(t, o.Triggered, "rule %s should not trigger", name)
        assert.Zero(t, o.CostCents)
    }
    assert.Equal(t, money.Cents(545), res.CostBase)
    assert.Equal(t, money.Cents(545), res.CostSubtotal)
    // 16% fuel on $5.45 = 87.2 cents, half-up to 87
    assert.Equal(t, money.Cents(87), res.CostPctSurcharge)
    assert.Equal(t, money.Cents(632), res.CostTotal)
    assert.Equal(t, "2025-09", res.RuleSetVersion)
}

func TestTinyPackageTotalEqualsBaseWithoutFuel(t *testing.T) {
    set := testSet(t)
    set.Pct.Bps = 0
    res, err := Evaluate(set, supplemented(t, set, ship(1, 1, 1, 1, "40202", june10)))
    require.NoError(t, err)
    assert.Equal(t, res.CostBase, res.CostTotal)
}

func TestAdditionalHandlingRaisesBillableBeforeLookup(t *testing.T) {
    set := testSet(t)
    res, err := Evaluate(set, supplemented(t, set, ship(50, 1, 1, 1, "40202", june10)))
    require.NoError(t, err)

    require.True(t, res.Rules["additional_handling"].Triggered)
    assert.Equal(t, money.Cents(1800), res.Rules["additional_handling"].CostCents)
    // Condition saw the original 1 lb billable; lookup uses the raised 30.
    assert.Equal(t, float64(1), res.BillableLbs)
    assert.Equal(t, float64(30), res.BilledLbs)
    // 30 lbs lands in the (5, 30] bracket.
    assert.Equal(t, money.Cents(1450), res.CostBase)
    assert.Equal(t, money.Cents(1450+1800), res.CostSubtotal)
}

func TestExclusivityLowerPriorityNumberWins(t *testing.T) {
    set := testSet(t)
    // 60x30x30: length+girth 180 (oversize) and longest 60 (handling);
    // both conditions hold, only the priority-1 rule may trigger.
    res, err := Evaluate(set, supplemented(t, set, ship(60, 30, 30, 10, "40202", june10)))
    require.NoError(t, err)

    assert.True(t, res.Rules["oversize"].Triggered)
    assert.False(t, res.Rules["additional_handling"].Triggered)
    // Oversize substitutes its flat rate for the bracket lookup.
    assert.Equal(t, money.Cents(9500), res.CostBase)
    // The loser's cost is excluded from the subtotal.
    assert.Equal(t, money.Cents(9500), res.CostSubtotal)

    count := 0
    for _, name := range []string{"oversize", "additional_handling"} {
        if res.Rules[name].Triggered {
            count++
        }
    }
    assert.LessOrEqual(t, count, 1)
}

func TestExclusivityIndependentOfDeclarationOrder(t *testing.T) {
    set := testSet(t)
    // Reverse the rule slice; the same member must win.
    for i, j := 0, len(set.Rules)-1; i < j; i, j = i+1, j-1 {
        set.Rules[i], set.Rules[j] = set.Rules[j], set.Rules[i]
    }
    require.NoError(t, set.Validate())
    res, err := Evaluate(set, supplemented(t, set, ship(60, 30, 30, 10, "40202", june10)))
    require.NoError(t, err)
    assert.True(t, res.Rules["oversize"].Triggered)
    assert.False(t, res.Rules["additional_handling"].Triggered)
}

func TestDependentRuleSeasons(t *testing.T) {
    set := testSet(t)
    ahs := ship(50, 1, 1, 1, "40202", time.Time{})

    cases := []struct {
        name      string
        date      time.Time
        triggered bool
        cost      money.Cents
    }{
        {"off season", june10, false, 0},
        {"early season", time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC), true, 399},
        {"peak step", time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC), true, 699},
        {"wrapped january", time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), true, 399},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            s := ahs
            s.ShipDate = tc.date
            res, err := Evaluate(set, supplemented(t, set, s))
            require.NoError(t, err)
            assert.Equal(t, tc.triggered, res.Rules["demand_ahs"].Triggered)
            assert.Equal(t, tc.cost, res.Rules["demand_ahs"].CostCents)
        })
    }
}

func TestDependentFalseWhenParentNotTriggered(t *testing.T) {
    set := testSet(t)
    dec5 := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)

    // Small package: parent condition false.
    res, err := Evaluate(set, supplemented(t, set, ship(10, 8, 4, 2, "40202", dec5)))
    require.NoError(t, err)
    assert.False(t, res.Rules["demand_ahs"].Triggered)

    // Oversize package in season: parent suppressed by its exclusivity
    // group, so the dependent stays off even though its window is active.
    res, err = Evaluate(set, supplemented(t, set, ship(60, 30, 30, 10, "40202", dec5)))
    require.NoError(t, err)
    assert.False(t, res.Rules["additional_handling"].Triggered)
    assert.False(t, res.Rules["demand_ahs"].Triggered)
}

func TestDeliveryAreaRule(t *testing.T) {
    set := testSet(t)
    res, err := Evaluate(set, supplemented(t, set, ship(10, 8, 4, 2, "59718", june10)))
    require.NoError(t, err)
    assert.True(t, res.Rules["das_extended"].Triggered)
    assert.Equal(t, money.Cents(390), res.Rules["das_extended"].CostCents)
}

func TestAllocatedRuleAlwaysFiresAtBlendedRate(t *testing.T) {
    set := testSet(t)
    // Residential surcharge: $5.45 list, 40% discount, allocated at 72%.
    expected := money.Cents(545).Discounted(4000).Mul(0.72)
    set.Rules = append(set.Rules, rule.Rule{
        Name:           "resi_allocated",
        AllocationRate: 0.72,
        Cost:           rule.FixedCost(expected),
    })
    require.NoError(t, set.Validate())

    res, err := Evaluate(set, supplemented(t, set, ship(1, 1, 1, 1, "40202", june10)))
    require.NoError(t, err)
    require.True(t, res.Rules["resi_allocated"].Triggered)
    assert.Equal(t, expected, res.Rules["resi_allocated"].CostCents)
    assert.Equal(t, money.Cents(545)+expected, res.CostSubtotal)
}

func TestTotalIdentityAcrossGrid(t *testing.T) {
    set := testSet(t)
    dates := []time.Time{
        june10,
        time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC),
        time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC),
    }
    shapes := [][4]float64{
        {1, 1, 1, 1},
        {50, 1, 1, 1},
        {10, 8, 4, 2},
        {60, 30, 30, 10},
        {24, 20, 16, 4},
    }
    for _, zip := range []string{"40202", "59718"} {
        for _, d := range dates {
            for _, sh := range shapes {
                res, err := Evaluate(set, supplemented(t, set, ship(sh[0], sh[1], sh[2], sh[3], zip, d)))
                require.NoError(t, err)

                var sum money.Cents
                for _, o := range res.Rules {
                    sum += o.CostCents
                }
                assert.Equal(t, res.CostBase+sum, res.CostSubtotal)
                assert.Equal(t, res.CostSubtotal+res.CostPctSurcharge, res.CostTotal)
                assert.GreaterOrEqual(t, res.BilledLbs, res.WeightLbs)
            }
        }
    }
}

func TestLookupAboveCoverageAbortsRow(t *testing.T) {
    set := testSet(t)
    _, err := Evaluate(set, supplemented(t, set, ship(10, 8, 4, 80, "40202", june10)))
    require.ErrorIs(t, err, rate.ErrAboveMaxBracket)
}
