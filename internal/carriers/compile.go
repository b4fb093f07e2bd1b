package carriers

import (
    "fmt"

    "carriercost/internal/money"
    "carriercost/internal/rate"
    "carriercost/internal/rule"
    "carriercost/internal/shipment"
    "carriercost/internal/zone"
)

// Compile turns a parsed card into an evaluable rule set plus its zone
// table. All configuration errors surface here, at construction time.
func Compile(c Card) (*rule.Set, *zone.Table, error) {
    zones, err := compileZones(c.Zones)
    if err != nil {
        return nil, nil, fmt.Errorf("card %s/%s: %w", c.Carrier, c.Service, err)
    }

    set := &rule.Set{
        Carrier: c.Carrier,
        Service: c.Service,
        Version: c.Version,
        Pct: rule.Percentage{
            Name:  c.Percentage.Name,
            Bps:   c.Percentage.Bps,
            Basis: rule.PercentBasis(c.Percentage.Basis),
        },
        Dim: shipment.DimensionalRule{
            Trigger:   shipment.DimTrigger(c.Dimensional.Trigger),
            Threshold: c.Dimensional.Threshold,
            Divisor:   c.Dimensional.Divisor,
        },
    }

    tbl, err := rate.NewTable(c.Brackets)
    if err != nil {
        return nil, nil, fmt.Errorf("card %s/%s: %w", c.Carrier, c.Service, err)
    }
    set.Rates = tbl

    // Every zone the mapping data can produce must have bracket coverage,
    // otherwise a reference-data row would turn into a mid-batch failure.
    for _, z := range zones.Zones() {
        if !tbl.Covers(z) {
            return nil, nil, fmt.Errorf("card %s/%s: zone %d has mappings but no rate brackets", c.Carrier, c.Service, z)
        }
    }

    for _, rc := range c.Rules {
        r, err := compileRule(rc)
        if err != nil {
            return nil, nil, fmt.Errorf("card %s/%s: rule %q: %w", c.Carrier, c.Service, rc.Name, err)
        }
        set.Rules = append(set.Rules, r)
    }

    if err := set.Validate(); err != nil {
        return nil, nil, err
    }
    return set, zones, nil
}

func compileZones(zc ZoneConfig) (*zone.Table, error) {
    var exact []zone.Mapping
    for _, row := range zc.Exact {
        if row.Origin == "" || row.ZIP == "" || row.Zone <= 0 {
            return nil, fmt.Errorf("bad zone mapping row %+v", row)
        }
        exact = append(exact, zone.Mapping{
            OriginSite: row.Origin,
            DestZIP:    row.ZIP,
            Zone:       row.Zone,
            Area:       zone.DeliveryArea(row.Area),
        })
    }
    var regions []zone.RegionMapping
    for _, row := range zc.Regions {
        if row.Origin == "" || row.Region == "" || row.Zone <= 0 {
            return nil, fmt.Errorf("bad zone region row %+v", row)
        }
        regions = append(regions, zone.RegionMapping{
            OriginSite: row.Origin,
            Region:     row.Region,
            Zone:       row.Zone,
        })
    }
    return zone.NewTable(exact, regions, zc.Default), nil
}

func compileRule(rc RuleConfig) (rule.Rule, error) {
    r := rule.Rule{
        Name:           rc.Name,
        Group:          rc.Group,
        Priority:       rc.Priority,
        DependsOn:      rc.DependsOn,
        MinBillableLbs: rc.MinBillableLbs,
    }

    window, err := rc.Window.compile()
    if err != nil {
        return rule.Rule{}, err
    }
    r.Window = window

    when, err := compilePredicate(rc.When)
    if err != nil {
        return rule.Rule{}, err
    }
    r.When = when

    switch rc.Kind {
    case "threshold":
        if rc.When == nil {
            return rule.Rule{}, fmt.Errorf("threshold rule needs a when predicate")
        }
        if rc.ListCents <= 0 && rc.PerLbCents <= 0 {
            return rule.Rule{}, fmt.Errorf("threshold rule needs list_cents or per_lb_cents")
        }
        r.Cost = baseCost(rc)

    case "oversize":
        if rc.When == nil {
            return rule.Rule{}, fmt.Errorf("oversize rule needs a when predicate")
        }
        if rc.FlatRateCents <= 0 {
            return rule.Rule{}, fmt.Errorf("oversize rule needs flat_rate_cents")
        }
        r.FlatRateCents = money.Cents(rc.FlatRateCents)
        r.Cost = baseCost(rc)

    case "demand":
        if rc.Window == nil {
            return rule.Rule{}, fmt.Errorf("demand rule needs a window")
        }
        if rc.ListCents <= 0 && rc.PerLbCents <= 0 {
            return rule.Rule{}, fmt.Errorf("demand rule needs list_cents or per_lb_cents")
        }
        peak, err := rc.Peak.compile()
        if err != nil {
            return rule.Rule{}, err
        }
        base := baseCost(rc)
        if peak != nil {
            if rc.PeakListCents <= 0 {
                return rule.Rule{}, fmt.Errorf("peak sub-window needs peak_list_cents")
            }
            r.Cost = rule.SteppedCost(base, peak, rule.FixedCost(listCost(rc.PeakListCents, rc.DiscountBps)))
        } else {
            r.Cost = base
        }

    case "dependent":
        if rc.DependsOn == "" {
            return rule.Rule{}, fmt.Errorf("dependent rule needs depends_on")
        }
        if rc.ListCents <= 0 && rc.PerLbCents <= 0 {
            return rule.Rule{}, fmt.Errorf("dependent rule needs list_cents or per_lb_cents")
        }
        r.Cost = baseCost(rc)

    case "allocated":
        if rc.AllocationRate <= 0 || rc.AllocationRate > 1 {
            return rule.Rule{}, fmt.Errorf("allocated rule needs allocation_rate in (0,1]")
        }
        if rc.When != nil {
            return rule.Rule{}, fmt.Errorf("allocated rule condition is unconditional; drop the when predicate")
        }
        r.AllocationRate = rc.AllocationRate
        // Expected cost: rate x (list x (1 - discount)), blended once here.
        r.Cost = rule.FixedCost(listCost(rc.ListCents, rc.DiscountBps).Mul(rc.AllocationRate))

    default:
        return rule.Rule{}, fmt.Errorf("unknown rule kind %q", rc.Kind)
    }

    return r, nil
}

// baseCost picks the rule's deterministic cost form: per-pound when
// per_lb_cents is set, otherwise list price minus discount.
func baseCost(rc RuleConfig) rule.CostFn {
    if rc.PerLbCents > 0 {
        return rule.PerPoundCost(listCost(rc.PerLbCents, rc.DiscountBps))
    }
    return rule.FixedCost(listCost(rc.ListCents, rc.DiscountBps))
}

func compilePredicate(p *Predicate) (rule.Cond, error) {
    if p == nil {
        return nil, nil
    }
    if len(p.All) > 0 {
        conds := make([]rule.Cond, 0, len(p.All))
        for i := range p.All {
            sub := p.All[i]
            c, err := compilePredicate(&sub)
            if err != nil {
                return nil, err
            }
            conds = append(conds, c)
        }
        return func(s shipment.Supplemented) bool {
            for _, c := range conds {
                if !c(s) {
                    return false
                }
            }
            return true
        }, nil
    }

    if p.Field == "delivery_area" {
        if p.Op != "eq" {
            return nil, fmt.Errorf("delivery_area supports only op eq")
        }
        want := zone.DeliveryArea(p.Area)
        return func(s shipment.Supplemented) bool { return s.DeliveryArea == want }, nil
    }

    get, err := fieldGetter(p.Field)
    if err != nil {
        return nil, err
    }
    cmp, err := comparator(p.Op)
    if err != nil {
        return nil, err
    }
    val := p.Value
    return func(s shipment.Supplemented) bool { return cmp(get(s), val) }, nil
}

func fieldGetter(field string) (func(shipment.Supplemented) float64, error) {
    switch field {
    case "cubic_in":
        return func(s shipment.Supplemented) float64 { return s.CubicIn }, nil
    case "longest_in":
        return func(s shipment.Supplemented) float64 { return s.LongestIn }, nil
    case "second_longest_in":
        return func(s shipment.Supplemented) float64 { return s.SecondLongestIn }, nil
    case "length_plus_girth_in":
        return func(s shipment.Supplemented) float64 { return s.LengthPlusGirthIn }, nil
    case "weight_lbs":
        return func(s shipment.Supplemented) float64 { return s.WeightLbs }, nil
    case "billable_lbs":
        return func(s shipment.Supplemented) float64 { return s.BillableLbs }, nil
    case "dim_weight_lbs":
        return func(s shipment.Supplemented) float64 { return s.DimWeightLbs }, nil
    case "zone":
        return func(s shipment.Supplemented) float64 { return float64(s.Zone) }, nil
    default:
        return nil, fmt.Errorf("unknown condition field %q", field)
    }
}

func comparator(op string) (func(a, b float64) bool, error) {
    switch op {
    case "gt":
        return func(a, b float64) bool { return a > b }, nil
    case "ge":
        return func(a, b float64) bool { return a >= b }, nil
    case "lt":
        return func(a, b float64) bool { return a < b }, nil
    case "le":
        return func(a, b float64) bool { return a <= b }, nil
    case "eq":
        return func(a, b float64) bool { return a == b }, nil
    default:
        return nil, fmt.Errorf("unknown condition op %q", op)
    }
}
