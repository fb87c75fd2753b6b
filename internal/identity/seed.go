package identity

import (
	"fmt"
	"io"

	"github.com/solatis/courier/internal/types"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a mapping seed:
//
//	identifiers:
//	  - kind: dataType
//	    localId: 5
//	    stableKey: 0190b6c4-...
type seedFile struct {
	Identifiers []Entry `yaml:"identifiers"`
}

var knownKinds = map[types.Kind]bool{
	types.KindDataType: true,
	types.KindDocument: true,
	types.KindMedia:    true,
}

// LoadSeed parses a YAML seed file. Entries with an unknown kind or a blank
// stable key are rejected with their position.
func LoadSeed(r io.Reader) ([]Entry, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, e := range seed.Identifiers {
		if !knownKinds[e.Kind] {
			return nil, fmt.Errorf("identifiers[%d]: unknown kind %q", i, e.Kind)
		}
		if e.StableKey.IsZero() {
			return nil, fmt.Errorf("identifiers[%d]: stableKey is required", i)
		}
	}
	return seed.Identifiers, nil
}

// WriteSeed writes entries in the LoadSeed layout.
func WriteSeed(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seedFile{Identifiers: entries}); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}
	return enc.Close()
}
