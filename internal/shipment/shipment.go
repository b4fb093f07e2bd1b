package shipment

import (
    "fmt"
    "strings"
    "time"

    "carriercost/internal/zone"
)

// Shipment is one raw input record. Fields are never mutated after read;
// the pipeline only adds derived fields via Supplemented.
type Shipment struct {
    ShipDate    time.Time `json:"ship_date"`
    OriginSite  string    `json:"origin_site"`
    DestZIP     string    `json:"dest_zip"`
    DestRegion  string    `json:"dest_region"`
    LengthIn    float64   `json:"length_in"`
    WidthIn     float64   `json:"width_in"`
    HeightIn    float64   `json:"height_in"`
    WeightLbs   float64   `json:"weight_lbs"`
    PackageType string    `json:"package_type,omitempty"`
}

// Validate is the fail-fast schema check. A missing required field aborts
// the batch; it is never passed through as a silent zero.
func (s Shipment) Validate() error {
    if s.ShipDate.IsZero() {
        return fmt.Errorf("%w: ship_date", ErrMissingField)
    }
    if strings.TrimSpace(s.OriginSite) == "" {
        return fmt.Errorf("%w: origin_site", ErrMissingField)
    }
    if strings.TrimSpace(s.DestZIP) == "" {
        return fmt.Errorf("%w: dest_zip", ErrMissingField)
    }
    if strings.TrimSpace(s.DestRegion) == "" {
        return fmt.Errorf("%w: dest_region", ErrMissingField)
    }
    if s.LengthIn <= 0 {
        return fmt.Errorf("%w: length_in", ErrMissingField)
    }
    if s.WidthIn <= 0 {
        return fmt.Errorf("%w: width_in", ErrMissingField)
    }
    if s.HeightIn <= 0 {
        return fmt.Errorf("%w: height_in", ErrMissingField)
    }
    if s.WeightLbs <= 0 {
        return fmt.Errorf("%w: weight_lbs", ErrMissingField)
    }
    return nil
}

// Supplemented is a Shipment plus every derived attribute the surcharge
// rules and rate lookup read. Derivation is deterministic.
type Supplemented struct {
    Shipment

    CubicIn           float64           `json:"cubic_in"`
    LongestIn         float64           `json:"longest_in"`
    SecondLongestIn   float64           `json:"second_longest_in"`
    LengthPlusGirthIn float64           `json:"length_plus_girth_in"`
    Zone              int               `json:"zone"`
    DeliveryArea      zone.DeliveryArea `json:"delivery_area"`
    ZoneFallback      zone.FallbackTier `json:"zone_fallback"`
    DimWeightLbs      float64           `json:"dim_weight_lbs"`
    UsesDimWeight     bool              `json:"uses_dim_weight"`
    BillableLbs       float64           `json:"billable_lbs"`
}
