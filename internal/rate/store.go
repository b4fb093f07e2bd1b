package rate

import (
    "context"
    "fmt"

    "github.com/jackc/pgx/v5/pgxpool"

    "carriercost/internal/money"
)

// Store loads rate brackets for one carrier/service from Postgres.
//
// Expected schema:
//   rate_brackets(carrier, service, lower_lbs, upper_lbs, zone, rate_cents)
type Store struct {
    db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// Load reads every bracket row for the carrier/service. The rows still go
// through NewTable so a bad upload fails at load time, not mid-batch.
func (s *Store) Load(ctx context.Context, carrier, service string) (*Table, error) {
    rows, err := s.db.Query(ctx, `
        SELECT lower_lbs, upper_lbs, zone, rate_cents
        FROM rate_brackets
        WHERE carrier = $1 AND service = $2
        ORDER BY zone, lower_lbs
    `, carrier, service)
    if err != nil {
        return nil, fmt.Errorf("query rate_brackets: %w", err)
    }
    defer rows.Close()

    var brackets []Bracket
    for rows.Next() {
        var b Bracket
        var cents int64
        if err := rows.Scan(&b.LowerLbs, &b.UpperLbs, &b.Zone, &cents); err != nil {
            return nil, fmt.Errorf("scan rate_brackets: %w", err)
        }
        b.RateCents = money.Cents(cents)
        brackets = append(brackets, b)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("read rate_brackets: %w", err)
    }
    if len(brackets) == 0 {
        return nil, fmt.Errorf("no rate_brackets rows for %s/%s", carrier, service)
    }
    return NewTable(brackets)
}
