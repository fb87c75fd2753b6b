package resolution

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/courier/internal/types"
)

/*
 * Picker value coercion.
 *
 * Picker editors persist references in whatever shape the host produced:
 * a bare number, a numeric string, a comma-separated list, or a JSON array
 * of either. Coercion normalises all of them to a token list and remembers
 * the shape so the translated tokens are written back the same way.
 *
 * Values stored as JSON numbers are flagged numeric: tokens that are still
 * local ids are written back as json.Number.
 *
 * Null defers to pass-through. Unsupported types are a malformed payload,
 * which the caller degrades on rather than fails.
 */

// valueShape is the persisted form of a picker value.
type valueShape int

const (
	shapeText valueShape = iota // "12,13"
	shapeList                   // [12, "13"]
)

// pickerValue is a picker value broken into id tokens.
type pickerValue struct {
	tokens  []string
	shape   valueShape
	numeric bool
}

// coercePicker splits value into tokens. ok is false for null and blank
// values.
func coercePicker(value any) (pv pickerValue, ok bool, err error) {
	if value == nil {
		return pickerValue{}, false, nil
	}

	if list, isList := value.([]any); isList {
		pv.shape = shapeList
		pv.numeric = len(list) > 0
		for _, v := range list {
			text, err := coerceText(v)
			if err != nil {
				return pickerValue{}, false, err
			}
			pv.numeric = pv.numeric && isNumber(v)
			if text = strings.TrimSpace(text); text != "" {
				pv.tokens = append(pv.tokens, text)
			}
		}
		return pv, len(pv.tokens) > 0, nil
	}

	text, err := coerceText(value)
	if err != nil {
		return pickerValue{}, false, err
	}
	pv.shape = shapeText
	pv.numeric = isNumber(value)
	for _, token := range strings.Split(text, ",") {
		if token = strings.TrimSpace(token); token != "" {
			pv.tokens = append(pv.tokens, token)
		}
	}
	return pv, len(pv.tokens) > 0, nil
}

// value reassembles the tokens in their original shape.
func (pv pickerValue) value() any {
	if pv.shape == shapeList {
		out := make([]any, len(pv.tokens))
		for i, t := range pv.tokens {
			out[i] = pv.element(t)
		}
		return out
	}
	if pv.numeric && len(pv.tokens) == 1 {
		return pv.element(pv.tokens[0])
	}
	return strings.Join(pv.tokens, ",")
}

func (pv pickerValue) element(token string) any {
	if pv.numeric {
		if _, err := types.ParseLocalID(token); err == nil {
			return json.Number(token)
		}
	}
	return token
}

func isNumber(value any) bool {
	switch value.(type) {
	case json.Number, float64, int, int64, types.LocalID:
		return true
	default:
		return false
	}
}

// coerceText converts scalar picker values to their text form.
// Booleans and structured values are rejected.
func coerceText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case types.LocalID:
		return v.String(), nil
	case types.StableKey:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: unsupported picker value type %T", types.ErrMalformedPayload, value)
	}
}
