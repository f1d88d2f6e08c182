// Package codec converts scalar values to and from their topic payload text.
//
// Parsing is round-trip safe: a payload is accepted only when the stored
// value is exactly what formatting will emit later.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload is returned when a payload cannot be parsed into the requested type.
var ErrInvalidPayload = errors.New("codec: invalid payload")

// Scalar is the set of value types a topic can carry.
type Scalar interface {
	bool | string |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// IntegralBase is the radix used for integer payloads.
type IntegralBase int

const (
	// Octal uses base 8.
	Octal IntegralBase = 8
	// Decimal uses base 10.
	Decimal IntegralBase = 10
	// Hexadecimal uses base 16.
	Hexadecimal IntegralBase = 16
)

// String returns the string representation of the base.
func (b IntegralBase) String() string {
	switch b {
	case Octal:
		return "oct"
	case Decimal:
		return "dec"
	case Hexadecimal:
		return "hex"
	default:
		return "unknown"
	}
}

// ParseIntegralBase maps "oct", "dec" or "hex" (or 8, 10, 16) to an IntegralBase.
func ParseIntegralBase(s string) (IntegralBase, error) {
	switch strings.ToLower(s) {
	case "oct", "octal", "8":
		return Octal, nil
	case "", "dec", "decimal", "10":
		return Decimal, nil
	case "hex", "hexadecimal", "16":
		return Hexadecimal, nil
	}
	return 0, fmt.Errorf("codec: unknown integral base %q", s)
}

// BoolFormat selects the word pair used for boolean payloads.
type BoolFormat uint8

const (
	// Any accepts every supported word pair and renders true/false.
	Any BoolFormat = iota
	// TrueFalse uses "true" and "false".
	TrueFalse
	// YesNo uses "yes" and "no".
	YesNo
	// OnOff uses "on" and "off".
	OnOff
	// OneZero uses "1" and "0".
	OneZero
)

var boolWords = map[BoolFormat][2]string{
	TrueFalse: {"true", "false"},
	YesNo:     {"yes", "no"},
	OnOff:     {"on", "off"},
	OneZero:   {"1", "0"},
}

// String returns the string representation of the bool format.
func (f BoolFormat) String() string {
	switch f {
	case Any:
		return "any"
	case TrueFalse:
		return "true/false"
	case YesNo:
		return "yes/no"
	case OnOff:
		return "on/off"
	case OneZero:
		return "1/0"
	default:
		return "unknown"
	}
}

// ParseBoolFormat maps a textual bool format name to a BoolFormat.
func ParseBoolFormat(s string) (BoolFormat, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return Any, nil
	case "true/false", "truefalse":
		return TrueFalse, nil
	case "yes/no", "yesno":
		return YesNo, nil
	case "on/off", "onoff":
		return OnOff, nil
	case "1/0", "onezero":
		return OneZero, nil
	}
	return 0, fmt.Errorf("codec: unknown bool format %q", s)
}

// ToggleKeyword flips the current boolean value instead of being parsed.
const ToggleKeyword = "toggle"

// Descriptor describes how a value is rendered and parsed.
type Descriptor struct {
	// Base is the radix for integer types. Zero means Decimal.
	Base IntegralBase

	// Pattern is a printf-style verb for floating point types, e.g. "%.2f".
	// Empty means the shortest representation that round-trips.
	Pattern string

	// Bool is the word pair for boolean types.
	Bool BoolFormat
}

// DefaultDescriptor returns the descriptor used when nothing is configured.
func DefaultDescriptor() Descriptor {
	return Descriptor{Base: Decimal, Bool: Any}
}

func (d Descriptor) base() int {
	switch d.Base {
	case Octal, Hexadecimal:
		return int(d.Base)
	default:
		return int(Decimal)
	}
}
