// Package transfer drives the resolution pipeline over whole bundles: the
// unit of packaging and extracting used by the CLI and the gRPC service.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/solatis/courier/internal/types"
)

// Bundle is a set of data types and items moved between environments
// together.
type Bundle struct {
	DataTypes []*types.DataType `json:"dataTypes"`
	Items     []*types.Item     `json:"items"`
}

// Size is the number of records in the bundle.
func (b *Bundle) Size() int {
	return len(b.DataTypes) + len(b.Items)
}

// ItemResult is the outcome for one item of a run.
type ItemResult struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Result is a bundle after a run, with per-item outcomes in item order.
type Result struct {
	Bundle  *Bundle      `json:"bundle"`
	Results []ItemResult `json:"results"`
}

// Failed counts items that did not resolve.
func (r *Result) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// DecodeBundle reads a bundle document. Numbers inside property values are
// kept as json.Number so large ids survive unchanged.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty bundle", types.ErrMalformedPayload)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedPayload, err)
	}
	for i, item := range b.Items {
		if item == nil {
			return nil, fmt.Errorf("%w: item %d is null", types.ErrMalformedPayload, i)
		}
	}
	for i, def := range b.DataTypes {
		if def == nil {
			return nil, fmt.Errorf("%w: data type %d is null", types.ErrMalformedPayload, i)
		}
	}
	return &b, nil
}

// EncodeBundle writes b as indented JSON.
func EncodeBundle(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}
