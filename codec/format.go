package codec

import (
	"fmt"
	"strconv"
)

// Format renders v as payload text according to d.
func Format[T Scalar](v T, d Descriptor) string {
	switch x := any(v).(type) {
	case bool:
		return formatBool(x, d.Bool)
	case string:
		return x
	case int:
		return strconv.FormatInt(int64(x), d.base())
	case int8:
		return strconv.FormatInt(int64(x), d.base())
	case int16:
		return strconv.FormatInt(int64(x), d.base())
	case int32:
		return strconv.FormatInt(int64(x), d.base())
	case int64:
		return strconv.FormatInt(x, d.base())
	case uint:
		return strconv.FormatUint(uint64(x), d.base())
	case uint8:
		return strconv.FormatUint(uint64(x), d.base())
	case uint16:
		return strconv.FormatUint(uint64(x), d.base())
	case uint32:
		return strconv.FormatUint(uint64(x), d.base())
	case uint64:
		return strconv.FormatUint(x, d.base())
	case float32:
		return formatFloat(float64(x), 32, d.Pattern)
	case float64:
		return formatFloat(x, 64, d.Pattern)
	}
	return ""
}

func formatBool(v bool, f BoolFormat) string {
	words, ok := boolWords[f]
	if !ok {
		words = boolWords[TrueFalse]
	}
	if v {
		return words[0]
	}
	return words[1]
}

func formatFloat(v float64, bitSize int, pattern string) string {
	if pattern != "" {
		return fmt.Sprintf(pattern, v)
	}
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}
