package units

import (
	"fmt"
	"strings"
)

// Mode selects which unit tokens the pattern searches for.
type Mode int

const (
	// ModeCatalog searches every alias in the catalog and relies on the
	// selector to drop units that do not fit the entity.
	ModeCatalog Mode = iota

	// ModeEntity searches only the aliases of the entity's own units.
	ModeEntity
)

func (m Mode) String() string {
	switch m {
	case ModeCatalog:
		return "catalog"
	case ModeEntity:
		return "entity"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "catalog" or "entity".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catalog":
		return ModeCatalog, nil
	case "entity":
		return ModeEntity, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q (expected catalog or entity)", s)
	}
}

// Extractor turns free text into a prediction for an entity. All patterns
// are compiled up front, so an Extractor is read-only and safe to share
// between workers.
type Extractor struct {
	catalog  *Catalog
	mode     Mode
	all      *Pattern
	byEntity map[string]*Pattern
}

// NewExtractor compiles the patterns needed for mode.
func NewExtractor(catalog *Catalog, mode Mode) (*Extractor, error) {
	e := &Extractor{catalog: catalog, mode: mode}

	switch mode {
	case ModeCatalog:
		p, err := NewPattern(catalog.Aliases())
		if err != nil {
			return nil, err
		}
		e.all = p
	case ModeEntity:
		e.byEntity = make(map[string]*Pattern)
		for _, entity := range catalog.Entities() {
			tokens, err := catalog.AliasesFor(entity)
			if err != nil {
				return nil, err
			}
			p, err := NewPattern(tokens)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", entity, err)
			}
			e.byEntity[entity] = p
		}
	default:
		return nil, fmt.Errorf("unsupported match mode %v", mode)
	}

	return e, nil
}

func (e *Extractor) Mode() Mode {
	return e.mode
}

// Catalog returns the catalog the extractor was built from.
func (e *Extractor) Catalog() *Catalog {
	return e.catalog
}

// Matches returns the raw matches the extractor would consider for entity.
func (e *Extractor) Matches(entity, text string) []Match {
	if e.mode == ModeEntity {
		return e.byEntity[entity].FindAll(text)
	}
	return e.all.FindAll(text)
}

// Extract returns the highest valid measurement for entity in text.
func (e *Extractor) Extract(entity, text string) (Measurement, error) {
	if !e.catalog.HasEntity(entity) {
		return Measurement{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return e.catalog.SelectHighest(entity, e.Matches(entity, text))
}

// Predict is Extract formatted for the output table. ok is false when there
// is no prediction, whatever the reason.
func (e *Extractor) Predict(entity, text string) (prediction string, ok bool) {
	m, err := e.Extract(entity, text)
	if err != nil {
		return "", false
	}
	return m.String(), true
}
