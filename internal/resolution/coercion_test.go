package resolution

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/courier/internal/types"
)

func TestCoercePicker(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		wantTokens  []string
		wantShape   valueShape
		wantNumeric bool
		wantOK      bool
		wantErr     error
	}{
		{
			name:   "nil",
			value:  nil,
			wantOK: false,
		},
		{
			name:   "blank string",
			value:  "   ",
			wantOK: false,
		},
		{
			name:       "single numeric string",
			value:      "12",
			wantTokens: []string{"12"},
			wantShape:  shapeText,
			wantOK:     true,
		},
		{
			name:       "comma list with spaces",
			value:      " 12, 13 ,,14",
			wantTokens: []string{"12", "13", "14"},
			wantShape:  shapeText,
			wantOK:     true,
		},
		{
			name:        "json number",
			value:       json.Number("1050"),
			wantTokens:  []string{"1050"},
			wantShape:   shapeText,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:        "float64 from untyped json",
			value:       1050.0,
			wantTokens:  []string{"1050"},
			wantShape:   shapeText,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:        "int",
			value:       7,
			wantTokens:  []string{"7"},
			wantShape:   shapeText,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:        "int64",
			value:       int64(8),
			wantTokens:  []string{"8"},
			wantShape:   shapeText,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:        "local id",
			value:       types.LocalID(9),
			wantTokens:  []string{"9"},
			wantShape:   shapeText,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:       "mixed list",
			value:      []any{json.Number("1"), "2", " ", "key-3"},
			wantTokens: []string{"1", "2", "key-3"},
			wantShape:  shapeList,
			wantOK:     true,
		},
		{
			name:        "list of numbers",
			value:       []any{json.Number("1"), 2.0},
			wantTokens:  []string{"1", "2"},
			wantShape:   shapeList,
			wantNumeric: true,
			wantOK:      true,
		},
		{
			name:   "empty list",
			value:  []any{},
			wantOK: false,
		},
		{
			name:    "boolean",
			value:   true,
			wantErr: types.ErrMalformedPayload,
		},
		{
			name:    "object",
			value:   map[string]any{"id": 1},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name:    "list with object",
			value:   []any{"1", map[string]any{}},
			wantErr: types.ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pv, ok, err := coercePicker(tt.value)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("coercePicker() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("coercePicker() unexpected error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("coercePicker() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(pv.tokens, tt.wantTokens) {
				t.Errorf("coercePicker() tokens = %v, want %v", pv.tokens, tt.wantTokens)
			}
			if pv.shape != tt.wantShape {
				t.Errorf("coercePicker() shape = %v, want %v", pv.shape, tt.wantShape)
			}
			if pv.numeric != tt.wantNumeric {
				t.Errorf("coercePicker() numeric = %v, want %v", pv.numeric, tt.wantNumeric)
			}
		})
	}
}

func TestPickerValueKeepsShape(t *testing.T) {
	text := pickerValue{tokens: []string{"a", "b"}, shape: shapeText}
	if got := text.value(); got != "a,b" {
		t.Errorf("value() = %v, want a,b", got)
	}

	list := pickerValue{tokens: []string{"a", "b"}, shape: shapeList}
	if got := list.value(); !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("value() = %v, want [a b]", got)
	}
}

func TestPickerValueRestoresNumbers(t *testing.T) {
	scalar := pickerValue{tokens: []string{"1042"}, shape: shapeText, numeric: true}
	if got := scalar.value(); got != json.Number("1042") {
		t.Errorf("value() = %#v, want json.Number(1042)", got)
	}

	list := pickerValue{tokens: []string{"5", "media-6"}, shape: shapeList, numeric: true}
	if got := list.value(); !reflect.DeepEqual(got, []any{json.Number("5"), "media-6"}) {
		t.Errorf("value() = %#v, want [5 media-6]", got)
	}

	key := pickerValue{tokens: []string{"media-7"}, shape: shapeText, numeric: true}
	if got := key.value(); got != "media-7" {
		t.Errorf("value() = %#v, want media-7", got)
	}
}
