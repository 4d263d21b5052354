package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadIdentifiers reads the identifier universe from a JSON array file.
// A missing file, malformed JSON or an empty universe is a fatal startup
// condition for the caller; no partial result is returned.
func LoadIdentifiers(path string) ([]Identifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifiers file %s: %w", path, err)
	}

	var identifiers []Identifier
	if err := json.Unmarshal(data, &identifiers); err != nil {
		return nil, fmt.Errorf("invalid JSON in identifiers file %s: %w", path, err)
	}
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("identifiers file %s contains no identifiers", path)
	}

	return identifiers, nil
}
