package codec

import (
	"strconv"
	"strings"
)

type signed interface {
	int | int8 | int16 | int32 | int64
}

type unsigned interface {
	uint | uint8 | uint16 | uint32 | uint64
}

// Parse converts payload text into a value of type T.
// current is the value held by the destination; it is the base for
// ToggleKeyword and is returned unchanged on failure.
func Parse[T Scalar](s string, current T, d Descriptor) (T, error) {
	var (
		out any
		err error
	)

	switch c := any(current).(type) {
	case bool:
		out, err = parseBool(s, c, d.Bool)
	case string:
		out = s
	case int:
		out, err = parseSigned[int](s, d.base(), strconv.IntSize)
	case int8:
		out, err = parseSigned[int8](s, d.base(), 8)
	case int16:
		out, err = parseSigned[int16](s, d.base(), 16)
	case int32:
		out, err = parseSigned[int32](s, d.base(), 32)
	case int64:
		out, err = parseSigned[int64](s, d.base(), 64)
	case uint:
		out, err = parseUnsigned[uint](s, d.base(), strconv.IntSize)
	case uint8:
		out, err = parseUnsigned[uint8](s, d.base(), 8)
	case uint16:
		out, err = parseUnsigned[uint16](s, d.base(), 16)
	case uint32:
		out, err = parseUnsigned[uint32](s, d.base(), 32)
	case uint64:
		out, err = parseUnsigned[uint64](s, d.base(), 64)
	case float32:
		var f float64
		f, err = parseFloat(s, 32, d.Pattern)
		out = float32(f)
	case float64:
		out, err = parseFloat(s, 64, d.Pattern)
	default:
		err = ErrInvalidPayload
	}

	if err != nil {
		return current, err
	}

	return out.(T), nil
}

// parseSigned widens to 64 bits and requires the narrowed value to round-trip.
// Full-width values must also reproduce the input text exactly.
func parseSigned[N signed](s string, base, bitSize int) (N, error) {
	wide, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, ErrInvalidPayload
	}

	if bitSize == 64 {
		if !strings.EqualFold(strconv.FormatInt(wide, base), s) {
			return 0, ErrInvalidPayload
		}
		return N(wide), nil
	}

	n := N(wide)
	if int64(n) != wide {
		return 0, ErrInvalidPayload
	}
	return n, nil
}

func parseUnsigned[N unsigned](s string, base, bitSize int) (N, error) {
	wide, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, ErrInvalidPayload
	}

	if bitSize == 64 {
		if !strings.EqualFold(strconv.FormatUint(wide, base), s) {
			return 0, ErrInvalidPayload
		}
		return N(wide), nil
	}

	n := N(wide)
	if uint64(n) != wide {
		return 0, ErrInvalidPayload
	}
	return n, nil
}

// parseFloat passes the value through the pattern, when one is set,
// so the stored value equals what will be published.
func parseFloat(s string, bitSize int, pattern string) (float64, error) {
	f, err := strconv.ParseFloat(s, bitSize)
	if err != nil {
		return 0, ErrInvalidPayload
	}

	if pattern == "" {
		return f, nil
	}

	f, err = strconv.ParseFloat(strings.TrimSpace(formatFloat(f, bitSize, pattern)), bitSize)
	if err != nil {
		return 0, ErrInvalidPayload
	}
	return f, nil
}

func parseBool(s string, current bool, f BoolFormat) (bool, error) {
	lower := strings.ToLower(s)
	if lower == ToggleKeyword {
		return !current, nil
	}

	if f == Any {
		for _, words := range boolWords {
			if v, ok := matchBool(lower, words); ok {
				return v, nil
			}
		}
		return current, ErrInvalidPayload
	}

	words, ok := boolWords[f]
	if !ok {
		return current, ErrInvalidPayload
	}
	if v, ok := matchBool(lower, words); ok {
		return v, nil
	}
	return current, ErrInvalidPayload
}

func matchBool(s string, words [2]string) (value, ok bool) {
	switch s {
	case words[0]:
		return true, true
	case words[1]:
		return false, true
	}
	return false, false
}
