package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/stacks/pkg/inventory"
)

// itemEntry is the YAML form of one item definition.
type itemEntry struct {
	ID          string  `yaml:"id"`
	NumericID   int64   `yaml:"numeric_id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Lore        string  `yaml:"lore"`
	MaxStack    *int    `yaml:"max_stack"`
	Discardable bool    `yaml:"discardable"`
	Sellable    bool    `yaml:"sellable"`
	Weight      float64 `yaml:"weight"`
	Value       int     `yaml:"value"`
}

type catalogFile struct {
	Items []itemEntry `yaml:"items"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog. A missing max_stack means the item does not
// stack.
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := New()
	for i, e := range file.Items {
		maxStack := 1
		if e.MaxStack != nil {
			maxStack = *e.MaxStack
		}
		if e.Weight < 0 || e.Value < 0 {
			return nil, fmt.Errorf("catalog item %d (%s): weight and value must not be negative", i, e.ID)
		}
		item := &inventory.Item{
			ID:          inventory.ItemID(e.ID),
			Name:        e.Name,
			Description: e.Description,
			Lore:        e.Lore,
			MaxStack:    maxStack,
			Discardable: e.Discardable,
			Sellable:    e.Sellable,
			Weight:      e.Weight,
			Value:       e.Value,
		}
		if err := c.Register(item, RegistryID(e.NumericID)); err != nil {
			return nil, fmt.Errorf("catalog item %d (%s): %w", i, e.ID, err)
		}
	}
	return c, nil
}
