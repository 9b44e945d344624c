package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Catalog maps human-readable course names to the ordered offering ids the
// directory understands. It is built once at startup and never mutated.
type Catalog struct {
	offerings map[string][]int
	names     map[string]string // lowercase -> canonical
}

// New builds a Catalog from the given mapping.
func New(entries map[string][]int) *Catalog {
	c := &Catalog{
		offerings: make(map[string][]int, len(entries)),
		names:     make(map[string]string, len(entries)),
	}
	for name, ids := range entries {
		copied := make([]int, len(ids))
		copy(copied, ids)
		c.offerings[name] = copied
		c.names[strings.ToLower(name)] = name
	}
	return c
}

// Default returns the built-in institutional catalog.
func Default() *Catalog {
	return New(map[string][]int{
		"Excel PRO":                              {161, 197, 201},
		"Design Gráfico":                         {254, 751, 169},
		"Analista e Desenvolvimento de Sistemas": {590, 176, 239, 203},
		"Administração":                          {129, 198, 156, 154},
		"Inglês Fluente":                         {263, 280, 281},
		"Inglês Kids":                            {266},
		"Informática Essencial":                  {130, 599, 161, 160, 162},
		"Operador de Micro":                      {130, 599, 160, 161, 162, 163, 222},
		"Especialista em Marketing & Vendas 360º": {123, 199, 202, 236, 264, 441, 734, 780, 828, 829},
		"Marketing Digital":                       {734, 236, 441, 199, 780},
		"Pacote Office":                           {160, 161, 162, 197, 201},
	})
}

// LoadFile reads a JSON name -> []offeringID mapping from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var entries map[string][]int
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return New(entries), nil
}

// Lookup resolves a single course name case-insensitively.
func (c *Catalog) Lookup(name string) (string, []int, bool) {
	canonical, ok := c.names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", nil, false
	}
	ids := c.offerings[canonical]
	out := make([]int, len(ids))
	copy(out, ids)
	return canonical, out, true
}

// Resolve maps the requested course names to the union of their offering
// ids, preserving request order and deduplicating repeats. Unknown names are
// rejected rather than skipped.
func (c *Catalog) Resolve(names []string) ([]int, error) {
	var ids []int
	seen := make(map[int]struct{})
	for _, name := range names {
		_, offeringIDs, ok := c.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown course: %s", name)
		}
		for _, id := range offeringIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Names lists every catalog entry in stable order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.offerings))
	for name := range c.offerings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of the full mapping for read endpoints.
func (c *Catalog) Entries() map[string][]int {
	out := make(map[string][]int, len(c.offerings))
	for name, ids := range c.offerings {
		copied := make([]int, len(ids))
		copy(copied, ids)
		out[name] = copied
	}
	return out
}
