// Package cart decodes the client-held cart submitted at checkout. The cart
// maps product ids to a list whose first element is the quantity; any further
// elements (a price the client displayed, a name) are ignored.
package cart

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"qrmenu-api/apperr"
)

type Line struct {
	ProductID uint
	Quantity  int
}

// Parse decodes raw into lines ordered by product id. raw may be the cart
// object itself or a JSON string holding it.
func Parse(raw json.RawMessage) ([]Line, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, apperr.ValidationField("cart", "cart is required")
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, apperr.ValidationField("cart", "cart is not valid JSON")
		}
		raw = json.RawMessage(inner)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apperr.ValidationField("cart", "cart must map product ids to quantities")
	}
	if len(entries) == 0 {
		return nil, apperr.ValidationField("cart", "cart is empty")
	}

	lines := make([]Line, 0, len(entries))
	for key, value := range entries {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			return nil, apperr.ValidationField("cart", "invalid product id %q", key)
		}
		qty, err := quantity(value)
		if err != nil {
			return nil, apperr.ProductValidation(uint(id), "invalid quantity for product %d", id)
		}
		lines = append(lines, Line{ProductID: uint(id), Quantity: qty})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func quantity(value json.RawMessage) (int, error) {
	value = bytes.TrimSpace(value)
	if len(value) > 0 && value[0] == '[' {
		var details []json.RawMessage
		if err := json.Unmarshal(value, &details); err != nil {
			return 0, err
		}
		if len(details) == 0 {
			return 0, strconv.ErrSyntax
		}
		value = details[0]
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		return 0, err
	}
	q, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(q), nil
}
