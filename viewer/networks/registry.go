package networks

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned by Lookup when no network carries the requested id.
// Callers must treat it as a routing error rather than falling back to a default.
var ErrNotFound = errors.New("network not found")

// Descriptor describes one supported network: where its explorer lives and how
// its native asset is denominated.
type Descriptor struct {
	ID          int64  `toml:"id"`
	Name        string `toml:"name"`
	Symbol      string `toml:"symbol"`
	Decimals    int    `toml:"decimals"`
	LogoURL     string `toml:"logo_url"`
	ExplorerURL string `toml:"explorer_url"`
}

// Registry is the immutable network table, loaded once at startup.
// It is safe for unsynchronized concurrent reads.
type Registry struct {
	byID map[int64]Descriptor
	ids  []int64
}

type registryFile struct {
	Networks []Descriptor `toml:"networks"`
}

// LoadFromFile reads a TOML network table and builds a registry from it.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read networks file: %w", err)
	}

	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse networks file: %w", err)
	}

	return NewRegistry(file.Networks)
}

// NewRegistry builds a registry from the given descriptors and validates them.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no networks configured")
	}

	byID := make(map[int64]Descriptor, len(descriptors))
	ids := make([]int64, 0, len(descriptors))
	for _, d := range descriptors {
		if d.ID <= 0 {
			return nil, fmt.Errorf("network %q has invalid id %d", d.Name, d.ID)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate network id %d", d.ID)
		}
		if d.Symbol == "" {
			return nil, fmt.Errorf("network %d is missing a native symbol", d.ID)
		}
		if d.Decimals < 0 {
			return nil, fmt.Errorf("network %d has negative decimals", d.ID)
		}
		if d.ExplorerURL == "" {
			return nil, fmt.Errorf("network %d is missing an explorer URL", d.ID)
		}
		d.ExplorerURL = strings.TrimRight(d.ExplorerURL, "/")
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &Registry{byID: byID, ids: ids}, nil
}

// WebURL returns the base of the explorer's web UI. Blockscout serves its
// JSON API under /api/v2 of the host the web UI lives on, so the web base is
// the explorer URL with that suffix stripped.
func (d Descriptor) WebURL() string {
	return strings.TrimSuffix(d.ExplorerURL, "/api/v2")
}

// Lookup returns the descriptor for the given network id.
func (r *Registry) Lookup(id int64) (Descriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return d, nil
}

// All returns every configured network in ascending id order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}
