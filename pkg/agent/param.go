package agent

import (
	"encoding/json"
	"fmt"
)

// ParamKind discriminates the value held by a ParamValue.
type ParamKind int

const (
	KindBool ParamKind = iota
	KindInt
	KindFloat
)

func (k ParamKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its string name so stored snapshots
// stay readable.
func (k ParamKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ParamKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "bool":
		*k = KindBool
	case "int":
		*k = KindInt
	case "float":
		*k = KindFloat
	default:
		return fmt.Errorf("unknown param kind %q", name)
	}
	return nil
}

// ParamValue is a tagged scalar: exactly one of Bool, Int or Float is
// meaningful, selected by Kind. Strategy parameters are maps of these.
type ParamValue struct {
	Kind  ParamKind `json:"kind"`
	Bool  bool      `json:"bool,omitempty"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
}

// BoolValue wraps a boolean strategy parameter.
func BoolValue(v bool) ParamValue {
	return ParamValue{Kind: KindBool, Bool: v}
}

// IntValue wraps an integer strategy parameter.
func IntValue(v int64) ParamValue {
	return ParamValue{Kind: KindInt, Int: v}
}

// FloatValue wraps a floating point strategy parameter.
func FloatValue(v float64) ParamValue {
	return ParamValue{Kind: KindFloat, Float: v}
}

// Equal reports whether two parameter values hold the same kind and payload.
func (p ParamValue) Equal(other ParamValue) bool {
	if p.Kind != other.Kind {
		return false
	}
	switch p.Kind {
	case KindBool:
		return p.Bool == other.Bool
	case KindInt:
		return p.Int == other.Int
	case KindFloat:
		return p.Float == other.Float
	default:
		return false
	}
}

func (p ParamValue) String() string {
	switch p.Kind {
	case KindBool:
		return fmt.Sprintf("%v", p.Bool)
	case KindInt:
		return fmt.Sprintf("%d", p.Int)
	case KindFloat:
		return fmt.Sprintf("%g", p.Float)
	default:
		return "<invalid>"
	}
}
