// Package dataset holds the in-memory representation of an uploaded or pasted
// table: a tagged scalar Value, rows keyed by column name, and the Dataset that
// ties them to an ordered column list.
package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind enumerates the scalar types a cell can hold.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindDate
)

// String returns the lower-case name used in JSON and CLI output.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text", "":
		*k = KindText
	case "number":
		*k = KindNumber
	case "boolean", "bool":
		*k = KindBool
	case "date":
		*k = KindDate
	default:
		return fmt.Errorf("dataset: unknown kind %q", string(b))
	}
	return nil
}

// Value is a single typed cell. The zero Value is the empty text "".
type Value struct {
	kind Kind
	s    string
	f    float64
	b    bool
	t    time.Time
}

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, f: f} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date cell normalized to UTC.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t.UTC()} }

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the empty text.
func (v Value) IsEmpty() bool { return v.kind == KindText && v.s == "" }

func (v Value) Time() time.Time { return v.t }

// Float returns the numeric payload. Only numbers report ok.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.f, true
}

// BoolValue returns the boolean payload. Only booleans report ok.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String coerces the value to the text used for categories and filters.
// Dates falling exactly on UTC midnight render as a plain calendar date.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	default:
		return v.s
	}
}

// Equal reports whether two values have the same kind and payload. Dates are
// compared by instant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return v.s == o.s
	}
}

// key is a comparable identity used for order-preserving de-duplication.
type key struct {
	kind Kind
	s    string
	f    float64
	b    bool
	ns   int64
}

// Key returns a comparable identity for v, suitable as a map key.
func (v Value) Key() any {
	k := key{kind: v.kind}
	switch v.kind {
	case KindNumber:
		k.f = v.f
	case KindBool:
		k.b = v.b
	case KindDate:
		k.ns = v.t.UnixNano()
	default:
		k.s = v.s
	}
	return k
}

type wireValue struct {
	T Kind            `json:"t"`
	V json.RawMessage `json:"v"`
}

// MarshalJSON encodes the value as {"t": kind, "v": payload}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("dataset: non-finite number")
		}
		payload = v.f
	case KindBool:
		payload = v.b
	case KindDate:
		payload = v.t.Format(time.RFC3339Nano)
	default:
		payload = v.s
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{T: v.kind, V: raw})
}

// UnmarshalJSON restores a value written by MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.T {
	case KindNumber:
		var f float64
		if err := json.Unmarshal(w.V, &f); err != nil {
			return fmt.Errorf("dataset: number payload: %w", err)
		}
		*v = Number(f)
	case KindBool:
		var x bool
		if err := json.Unmarshal(w.V, &x); err != nil {
			return fmt.Errorf("dataset: boolean payload: %w", err)
		}
		*v = Bool(x)
	case KindDate:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return fmt.Errorf("dataset: date payload: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("dataset: date payload: %w", err)
		}
		*v = Date(t)
	default:
		var s string
		if len(w.V) > 0 {
			if err := json.Unmarshal(w.V, &s); err != nil {
				return fmt.Errorf("dataset: text payload: %w", err)
			}
		}
		*v = Text(s)
	}
	return nil
}
