package export

import (
	"bytes"
	"encoding/json"

	"github.com/tablewright/encounter-api/internal/errors"
)

// EncodeJSON serializes an envelope to its JSON wire form
func EncodeJSON(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, errors.InvalidArgument("envelope is required")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, errors.Wrap(err, "failed to encode envelope")
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses JSON into the generic tree the import schema validates.
// Decoding to a map instead of the struct lets validation report every
// structural problem instead of stopping at the first type mismatch.
func DecodeJSON(data []byte) (map[string]any, error) {
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.InvalidFormatf("malformed JSON: %v", err)
	}
	return tree, nil
}

// FromTree converts a schema-validated generic tree into a typed envelope
func FromTree(tree map[string]any) (*Envelope, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "failed to re-encode envelope tree")
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.InvalidFormatf("envelope does not match schema: %v", err)
	}
	return &env, nil
}
