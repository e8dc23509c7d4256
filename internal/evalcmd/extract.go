package evalcmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/measurer/internal/units"
	"gopkg.in/yaml.v3"
)

// executeExtract runs the matcher and selector on text without any OCR.
func executeExtract(w io.Writer, extractor *units.Extractor, entity, text string, showMatches bool) error {
	if showMatches {
		matches := extractor.Matches(entity, text)
		fmt.Fprintf(w, "Matches (%d):\n", len(matches))
		for _, m := range matches {
			canonical := extractor.Catalog().Canonicalize(m.Unit)
			fmt.Fprintf(w, "  %s %s -> %s\n", m.Number, m.Unit, canonical)
		}
	}

	m, err := extractor.Extract(entity, text)
	switch {
	case err == nil:
		fmt.Fprintf(w, "Prediction: %s\n", m)
	case errors.Is(err, units.ErrUnknownEntity),
		errors.Is(err, units.ErrNoCandidate),
		errors.Is(err, units.ErrNotAllowed):
		fmt.Fprintf(w, "Prediction: none (%v)\n", err)
	default:
		return err
	}
	return nil
}

// executeCatalog prints the effective catalog as YAML, or only a validation
// summary. Loading the catalog already enforces its invariants.
func executeCatalog(w io.Writer, catalog *units.Catalog, validate bool) error {
	spec := catalog.Spec()
	if validate {
		fmt.Fprintf(w, "Catalog is valid: %d entities, %d aliases, %d allowed units\n",
			len(spec.Entities), len(spec.Aliases), len(spec.Allowed))
		return nil
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(spec); err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return encoder.Close()
}
