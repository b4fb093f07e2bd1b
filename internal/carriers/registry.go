package carriers

import (
    "embed"
    "fmt"
    "os"
    "path/filepath"
    "sort"

    "carriercost/internal/rate"
    "carriercost/internal/rule"
    "carriercost/internal/zone"
)

//go:embed cards/*.json
var builtinCards embed.FS

// Entry is one registered carrier/service: the compiled rule set and the
// zone resolver it prices against.
type Entry struct {
    Set   *rule.Set
    Zones zone.Resolver
}

// Info is the public listing row for a registered rule set.
type Info struct {
    Carrier string `json:"carrier"`
    Service string `json:"service"`
    Version string `json:"version"`
}

// Registry holds every compiled rule set, keyed carrier/service. Populated
// once at startup and read-only afterwards.
type Registry struct {
    entries map[string]Entry
}

func NewRegistry() *Registry {
    return &Registry{entries: make(map[string]Entry)}
}

// Register compiles a card and adds it. A card for an already-registered
// carrier/service is a configuration error.
func (r *Registry) Register(c Card) error {
    set, zones, err := Compile(c)
    if err != nil {
        return err
    }
    key := set.Key()
    if _, dup := r.entries[key]; dup {
        return fmt.Errorf("duplicate rule card for %s", key)
    }
    r.entries[key] = Entry{Set: set, Zones: zones}
    return nil
}

func (r *Registry) Get(carrier, service string) (Entry, bool) {
    e, ok := r.entries[carrier+"/"+service]
    return e, ok
}

// List returns registered rule sets sorted by key for stable output.
func (r *Registry) List() []Info {
    keys := make([]string, 0, len(r.entries))
    for k := range r.entries {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    infos := make([]Info, 0, len(keys))
    for _, k := range keys {
        e := r.entries[k]
        infos = append(infos, Info{Carrier: e.Set.Carrier, Service: e.Set.Service, Version: e.Set.Version})
    }
    return infos
}

// Override swaps in externally loaded reference tables (e.g. from Postgres)
// for a registered entry, re-checking zone/bracket coverage. The original
// set is not mutated; evaluation in flight keeps its tables.
func (r *Registry) Override(carrier, service string, rates *rate.Table, zones zone.Resolver) error {
    key := carrier + "/" + service
    e, ok := r.entries[key]
    if !ok {
        return fmt.Errorf("no rule card registered for %s", key)
    }
    if rates != nil {
        set := *e.Set
        set.Rates = rates
        if err := set.Validate(); err != nil {
            return err
        }
        e.Set = &set
    }
    if zones != nil {
        e.Zones = zones
    }
    if t, ok := e.Zones.(*zone.Table); ok {
        for _, z := range t.Zones() {
            if !e.Set.Rates.Covers(z) {
                return fmt.Errorf("%s: zone %d has mappings but no rate brackets", key, z)
            }
        }
    }
    r.entries[key] = e
    return nil
}

// LoadBuiltin compiles the rule cards bundled with the binary.
func LoadBuiltin() (*Registry, error) {
    r := NewRegistry()
    files, err := builtinCards.ReadDir("cards")
    if err != nil {
        return nil, err
    }
    for _, f := range files {
        data, err := builtinCards.ReadFile("cards/" + f.Name())
        if err != nil {
            return nil, err
        }
        card, err := ParseCard(data)
        if err != nil {
            return nil, fmt.Errorf("%s: %w", f.Name(), err)
        }
        if err := r.Register(card); err != nil {
            return nil, fmt.Errorf("%s: %w", f.Name(), err)
        }
    }
    return r, nil
}

// LoadDir registers every *.json card in a directory, on top of whatever is
// already registered.
func (r *Registry) LoadDir(dir string) error {
    matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
    if err != nil {
        return err
    }
    for _, path := range matches {
        data, err := os.ReadFile(path)
        if err != nil {
            return err
        }
        card, err := ParseCard(data)
        if err != nil {
            return fmt.Errorf("%s: %w", path, err)
        }
        if err := r.Register(card); err != nil {
            return fmt.Errorf("%s: %w", path, err)
        }
    }
    return nil
}
