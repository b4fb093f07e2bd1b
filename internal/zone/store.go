package zone

import (
    "context"
    "fmt"

    "github.com/jackc/pgx/v5/pgxpool"
)

// Store loads zone reference data for one carrier/service from Postgres.
//
// Expected schema:
//   zone_mappings(carrier, service, origin_site, dest_zip, zone, delivery_area)
//   zone_region_fallbacks(carrier, service, origin_site, region, zone)
type Store struct {
    db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// Load reads all mapping rows for the carrier/service and builds a Table.
// The region fallback rows are expected to already hold the most frequent
// zone per (region, origin); computing that mode is an ingestion concern.
func (s *Store) Load(ctx context.Context, carrier, service string, defaultZone int) (*Table, error) {
    rows, err := s.db.Query(ctx, `
        SELECT origin_site, dest_zip, zone, COALESCE(delivery_area, '')
        FROM zone_mappings
        WHERE carrier = $1 AND service = $2
    `, carrier, service)
    if err != nil {
        return nil, fmt.Errorf("query zone_mappings: %w", err)
    }
    defer rows.Close()

    var exact []Mapping
    for rows.Next() {
        var m Mapping
        var area string
        if err := rows.Scan(&m.OriginSite, &m.DestZIP, &m.Zone, &area); err != nil {
            return nil, fmt.Errorf("scan zone_mappings: %w", err)
        }
        m.Area = DeliveryArea(area)
        exact = append(exact, m)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("read zone_mappings: %w", err)
    }

    rrows, err := s.db.Query(ctx, `
        SELECT origin_site, region, zone
        FROM zone_region_fallbacks
        WHERE carrier = $1 AND service = $2
    `, carrier, service)
    if err != nil {
        return nil, fmt.Errorf("query zone_region_fallbacks: %w", err)
    }
    defer rrows.Close()

    var regions []RegionMapping
    for rrows.Next() {
        var m RegionMapping
        if err := rrows.Scan(&m.OriginSite, &m.Region, &m.Zone); err != nil {
            return nil, fmt.Errorf("scan zone_region_fallbacks: %w", err)
        }
        regions = append(regions, m)
    }
    if err := rrows.Err(); err != nil {
        return nil, fmt.Errorf("read zone_region_fallbacks: %w", err)
    }

    return NewTable(exact, regions, defaultZone), nil
}
