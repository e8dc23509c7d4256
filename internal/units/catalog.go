package units

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownEntity is returned when an entity name is not in the catalog.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidCatalog is returned when a catalog violates its invariants.
	ErrInvalidCatalog = errors.New("invalid unit catalog")
)

// CatalogSpec is the serialized form of a Catalog. It is what the YAML
// catalog file contains and what `catalog` prints.
type CatalogSpec struct {
	// Entities maps an entity name to its valid canonical units.
	Entities map[string][]string `yaml:"entities"`

	// Aliases maps every recognized abbreviation or full name to its
	// canonical unit. Keys are matched case-insensitively.
	Aliases map[string]string `yaml:"aliases"`

	// Allowed is the global allow-list of canonical units that may ever be
	// reported.
	Allowed []string `yaml:"allowed"`
}

// Catalog is the immutable unit configuration shared by every worker.
//
// A Catalog is safe for concurrent use; none of its methods mutate it.
type Catalog struct {
	entityUnits map[string]map[string]struct{}
	aliases     map[string]string
	allowed     map[string]struct{}
}

// NewCatalog builds a Catalog from spec and checks its invariants.
//
// Every unit listed for an entity must be the canonical target of at least
// one alias. Allowed units that no entity uses are logged as warnings.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{
		entityUnits: make(map[string]map[string]struct{}, len(spec.Entities)),
		aliases:     make(map[string]string, len(spec.Aliases)),
		allowed:     make(map[string]struct{}, len(spec.Allowed)),
	}

	canonical := make(map[string]struct{})
	for alias, unit := range spec.Aliases {
		key := fold(alias)
		if key == "" || strings.TrimSpace(unit) == "" {
			return nil, fmt.Errorf("%w: empty alias or unit (%q -> %q)", ErrInvalidCatalog, alias, unit)
		}
		if prev, ok := c.aliases[key]; ok && prev != unit {
			return nil, fmt.Errorf("%w: alias %q maps to both %q and %q", ErrInvalidCatalog, alias, prev, unit)
		}
		c.aliases[key] = unit
		canonical[unit] = struct{}{}
	}

	used := make(map[string]struct{})
	for entity, unitList := range spec.Entities {
		if strings.TrimSpace(entity) == "" {
			return nil, fmt.Errorf("%w: empty entity name", ErrInvalidCatalog)
		}
		set := make(map[string]struct{}, len(unitList))
		for _, unit := range unitList {
			if _, ok := canonical[unit]; !ok {
				return nil, fmt.Errorf("%w: unit %q of entity %q has no alias", ErrInvalidCatalog, unit, entity)
			}
			set[unit] = struct{}{}
			used[unit] = struct{}{}
		}
		c.entityUnits[entity] = set
	}

	for _, unit := range spec.Allowed {
		c.allowed[unit] = struct{}{}
		if _, ok := used[unit]; !ok {
			slog.Warn("Allowed unit is not valid for any entity", "unit", unit)
		}
	}

	return c, nil
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var spec CatalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	return NewCatalog(spec)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(DefaultSpec())
	if err != nil {
		panic(fmt.Sprintf("built-in unit catalog is invalid: %v", err))
	}
	return c
})

// Default returns the built-in catalog of product-listing measurements.
func Default() *Catalog {
	return defaultCatalog()
}

// UnitsFor returns the sorted canonical units valid for entity.
func (c *Catalog) UnitsFor(entity string) ([]string, error) {
	set, ok := c.entityUnits[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return sortedKeys(set), nil
}

// HasEntity reports whether entity is known.
func (c *Catalog) HasEntity(entity string) bool {
	_, ok := c.entityUnits[entity]
	return ok
}

// Canonicalize maps an abbreviation or name to its canonical unit. Lookup is
// case-insensitive. Unknown tokens are returned unchanged, so callers must
// still check the result with IsValidFor or IsAllowed.
func (c *Catalog) Canonicalize(token string) string {
	if unit, ok := c.aliases[fold(token)]; ok {
		return unit
	}
	return token
}

// IsValidFor reports whether unit is one of entity's canonical units.
func (c *Catalog) IsValidFor(entity, unit string) bool {
	_, ok := c.entityUnits[entity][unit]
	return ok
}

// IsAllowed reports whether unit is on the global allow-list.
func (c *Catalog) IsAllowed(unit string) bool {
	_, ok := c.allowed[unit]
	return ok
}

// Entities returns all entity names, sorted.
func (c *Catalog) Entities() []string {
	names := make([]string, 0, len(c.entityUnits))
	for name := range c.entityUnits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns every alias token in the catalog (case-folded).
func (c *Catalog) Aliases() []string {
	return sortedKeys(c.aliases)
}

// AliasesFor returns the alias tokens whose canonical unit is valid for
// entity.
func (c *Catalog) AliasesFor(entity string) ([]string, error) {
	set, ok := c.entityUnits[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	var tokens []string
	for alias, unit := range c.aliases {
		if _, ok := set[unit]; ok {
			tokens = append(tokens, alias)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

// Spec returns the serializable form of the catalog.
func (c *Catalog) Spec() CatalogSpec {
	spec := CatalogSpec{
		Entities: make(map[string][]string, len(c.entityUnits)),
		Aliases:  make(map[string]string, len(c.aliases)),
		Allowed:  sortedKeys(c.allowed),
	}
	for entity, set := range c.entityUnits {
		spec.Entities[entity] = sortedKeys(set)
	}
	for alias, unit := range c.aliases {
		spec.Aliases[alias] = unit
	}
	return spec
}

// fold returns the case-folded form of s used for alias lookup. Folding maps
// the micro sign and the Greek mu to the same rune, which plain lowercasing
// does not. Inner whitespace runs collapse to one space so "cu  ft" finds
// "cu ft". A Caser is stateful, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
