package server

import (
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/google/uuid"

    "carriercost/internal/carriers"
    "carriercost/internal/engine"
    "carriercost/internal/rate"
    "carriercost/internal/shipment"
    "carriercost/internal/zone"
)

type Server struct {
    reg     *carriers.Registry
    workers int
}

// New builds the HTTP API over a populated rule-card registry.
func New(reg *carriers.Registry, workers int) http.Handler {
    s := &Server{reg: reg, workers: workers}
    r := chi.NewRouter()
    // Observability: Request ID and basic logger
    r.Use(requestIDMiddleware)
    r.Use(middleware.Logger)
    r.Get("/healthz", s.handleHealth)
    r.Get("/carriers", s.handleListCarriers)
    r.Post("/estimates", s.handleEstimates)
    return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusOK)
    w.Write([]byte("ok"))
}

func (s *Server) handleListCarriers(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]any{"carriers": s.reg.List()})
}

// Estimates

// ShipmentRow is one shipment record on the wire. Ship dates accept
// YYYY-MM-DD or RFC3339.
type ShipmentRow struct {
    ShipDate    string  `json:"ship_date"`
    OriginSite  string  `json:"origin_site"`
    DestZIP     string  `json:"dest_zip"`
    DestRegion  string  `json:"dest_region"`
    LengthIn    float64 `json:"length_in"`
    WidthIn     float64 `json:"width_in"`
    HeightIn    float64 `json:"height_in"`
    WeightLbs   float64 `json:"weight_lbs"`
    PackageType string  `json:"package_type,omitempty"`
}

type EstimateRequest struct {
    Carrier   string        `json:"carrier"`
    Service   string        `json:"service"`
    Shipments []ShipmentRow `json:"shipments"`
}

type EstimateResponse struct {
    BatchID        string          `json:"batch_id"`
    Carrier        string          `json:"carrier"`
    Service        string          `json:"service"`
    RuleSetVersion string          `json:"rule_set_version"`
    Results        []engine.Result `json:"results"`
}

func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
    var req EstimateRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    if strings.TrimSpace(req.Carrier) == "" || strings.TrimSpace(req.Service) == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "carrier and service required")
        return
    }
    if len(req.Shipments) == 0 {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "shipments required")
        return
    }

    entry, ok := s.reg.Get(req.Carrier, req.Service)
    if !ok {
        writeErrorJSON(w, http.StatusNotFound, "unknown_carrier", "no rule card for carrier/service")
        return
    }

    batch := make([]shipment.Shipment, len(req.Shipments))
    for i, row := range req.Shipments {
        sh, err := row.toShipment()
        if err != nil {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_shipment", err.Error())
            return
        }
        batch[i] = sh
    }

    results, err := engine.EvaluateBatch(r.Context(), entry.Set, entry.Zones, batch, s.workers)
    if err != nil {
        switch {
        case errors.Is(err, shipment.ErrMissingField):
            writeErrorJSON(w, http.StatusBadRequest, "invalid_shipment", err.Error())
        case errors.Is(err, rate.ErrAboveMaxBracket), errors.Is(err, rate.ErrUnknownZone), errors.Is(err, zone.ErrNoZone):
            // Reference-data gap at the last fallback tier: a card problem,
            // not a caller problem.
            writeErrorJSON(w, http.StatusUnprocessableEntity, "rate_card_gap", err.Error())
        default:
            writeErrorJSON(w, http.StatusInternalServerError, "evaluation_error", "evaluation failed")
        }
        return
    }

    resp := EstimateResponse{
        BatchID:        uuid.New().String(),
        Carrier:        entry.Set.Carrier,
        Service:        entry.Set.Service,
        RuleSetVersion: entry.Set.Version,
        Results:        results,
    }
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(resp)
}

func (r ShipmentRow) toShipment() (shipment.Shipment, error) {
    sh := shipment.Shipment{
        OriginSite:  r.OriginSite,
        DestZIP:     r.DestZIP,
        DestRegion:  r.DestRegion,
        LengthIn:    r.LengthIn,
        WidthIn:     r.WidthIn,
        HeightIn:    r.HeightIn,
        WeightLbs:   r.WeightLbs,
        PackageType: r.PackageType,
    }
    if strings.TrimSpace(r.ShipDate) != "" {
        t, err := time.Parse("2006-01-02", r.ShipDate)
        if err != nil {
            t, err = time.Parse(time.RFC3339, r.ShipDate)
        }
        if err != nil {
            return shipment.Shipment{}, errors.New("invalid ship_date (want YYYY-MM-DD)")
        }
        sh.ShipDate = t.UTC()
    }
    if err := sh.Validate(); err != nil {
        return shipment.Shipment{}, err
    }
    return sh, nil
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(map[string]any{
        "error": map[string]string{
            "code":    code,
            "message": message,
        },
    })
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
        if rid == "" {
            rid = uuid.New().String()
        }
        w.Header().Set("X-Request-ID", rid)
        next.ServeHTTP(w, r)
    })
}
