package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExtrasSubtotalLabel is the reserved key under which the extras subtotal is
// reported. Input extras using it are ignored.
const ExtrasSubtotalLabel = "額外費用小計"

// Well-known extra cost labels offered by the quote form.
const (
	ExtraHosting     = "主機費用"
	ExtraDomain      = "網域費用"
	ExtraMaintenance = "維護費用"
)

// ExtraCost is one raw extra cost entry. Value is untrusted like
// TaskInput.Hours.
type ExtraCost struct {
	Label string
	Value any
}

// ExtraAmount is a sanitized extra cost rounded to an integer amount.
type ExtraAmount struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// ExtraCosts is an ordered label→value mapping. Its JSON form is an object
// whose key order is kept.
type ExtraCosts []ExtraCost

// Extras builds ExtraCosts from alternating label/value arguments.
func Extras(pairs ...any) ExtraCosts {
	out := make(ExtraCosts, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		label, _ := pairs[i].(string)
		out = out.Set(label, pairs[i+1])
	}
	return out
}

// Set returns a copy with label set to value. An existing label keeps its
// position.
func (e ExtraCosts) Set(label string, value any) ExtraCosts {
	out := make(ExtraCosts, len(e), len(e)+1)
	copy(out, e)
	for i := range out {
		if out[i].Label == label {
			out[i].Value = value
			return out
		}
	}
	return append(out, ExtraCost{Label: label, Value: value})
}

// Get returns the raw value stored under label.
func (e ExtraCosts) Get(label string) (any, bool) {
	for _, c := range e {
		if c.Label == label {
			return c.Value, true
		}
	}
	return nil, false
}

// Amounts sanitizes every entry: values clamp to round(max(0, v)), garbage
// counts as 0. Entries with an empty or reserved label are dropped; for a
// repeated label the last value wins at the first position.
func (e ExtraCosts) Amounts() []ExtraAmount {
	out := make([]ExtraAmount, 0, len(e))
	index := make(map[string]int, len(e))
	for _, c := range e {
		if c.Label == "" || c.Label == ExtrasSubtotalLabel {
			continue
		}
		amount := roundHalfUp(toDecimal(clampNumber(c.Value)))
		if i, ok := index[c.Label]; ok {
			out[i].Amount = amount
			continue
		}
		index[c.Label] = len(out)
		out = append(out, ExtraAmount{Label: c.Label, Amount: amount})
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object in order.
func (e ExtraCosts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("encode extra %q: %w", c.Label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. null decodes to an
// empty list.
func (e *ExtraCosts) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extras: expected JSON object")
	}

	var out ExtraCosts
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("extras: decode %q: %w", label, err)
		}
		out = out.Set(label, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}
