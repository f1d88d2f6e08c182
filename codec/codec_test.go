package codec

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bases = []IntegralBase{Octal, Decimal, Hexadecimal}

func roundTrip[T Scalar](t *testing.T, v T, d Descriptor) {
	t.Helper()

	var zero T
	got, err := Parse(Format(v, d), zero, d)
	require.NoError(t, err, "value %v base %s", v, d.Base)
	require.Equal(t, v, got)
}

func TestRoundTripExhaustive(t *testing.T) {
	for _, base := range bases {
		d := Descriptor{Base: base}

		t.Run("int8 "+base.String(), func(t *testing.T) {
			for i := math.MinInt8; i <= math.MaxInt8; i++ {
				roundTrip(t, int8(i), d)
			}
		})

		t.Run("uint8 "+base.String(), func(t *testing.T) {
			for i := 0; i <= math.MaxUint8; i++ {
				roundTrip(t, uint8(i), d)
			}
		})

		t.Run("int16 "+base.String(), func(t *testing.T) {
			for i := math.MinInt16; i <= math.MaxInt16; i++ {
				roundTrip(t, int16(i), d)
			}
		})

		t.Run("uint16 "+base.String(), func(t *testing.T) {
			for i := 0; i <= math.MaxUint16; i++ {
				roundTrip(t, uint16(i), d)
			}
		})
	}
}

func TestRoundTripSampled(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, base := range bases {
		d := Descriptor{Base: base}

		t.Run("32 bit "+base.String(), func(t *testing.T) {
			for _, v := range []int32{math.MinInt32, -1, 0, 1, math.MaxInt32} {
				roundTrip(t, v, d)
			}
			for range 10000 {
				roundTrip(t, rng.Int32()-rng.Int32(), d)
				roundTrip(t, rng.Uint32(), d)
			}
		})

		t.Run("64 bit "+base.String(), func(t *testing.T) {
			for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
				roundTrip(t, v, d)
			}
			roundTrip(t, uint64(math.MaxUint64), d)
			for range 10000 {
				roundTrip(t, rng.Int64()-rng.Int64(), d)
				roundTrip(t, rng.Uint64(), d)
				roundTrip(t, int(rng.Int64()), d)
				roundTrip(t, uint(rng.Uint64()), d)
			}
		})
	}

	t.Run("float32", func(t *testing.T) {
		d := DefaultDescriptor()
		for _, v := range []float32{0, 1, -1, math.MaxFloat32, math.SmallestNonzeroFloat32, 0.1} {
			roundTrip(t, v, d)
		}
		for range 10000 {
			roundTrip(t, math.Float32frombits(rng.Uint32()&0x7f7fffff), d)
			roundTrip(t, (rng.Float32()-0.5)*1e6, d)
		}
	})

	t.Run("float64", func(t *testing.T) {
		d := DefaultDescriptor()
		for _, v := range []float64{0, 1, -1, math.MaxFloat64, math.SmallestNonzeroFloat64, 0.1} {
			roundTrip(t, v, d)
		}
		for range 10000 {
			roundTrip(t, (rng.Float64()-0.5)*1e12, d)
			roundTrip(t, rng.NormFloat64(), d)
		}
	})
}

func TestParseIntegral(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		base    IntegralBase
		want    uint8
		wantErr bool
	}{
		{"max", "255", Decimal, 255, false},
		{"overflow", "256", Decimal, 7, true},
		{"negative", "-1", Decimal, 7, true},
		{"trailing garbage", "12a", Decimal, 7, true},
		{"empty", "", Decimal, 7, true},
		{"hex", "ff", Hexadecimal, 255, false},
		{"hex upper", "FF", Hexadecimal, 255, false},
		{"octal", "17", Octal, 15, false},
		{"octal invalid digit", "8", Octal, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.payload, uint8(7), Descriptor{Base: tt.base})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignedNarrowing(t *testing.T) {
	got, err := Parse("-128", int8(0), DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, int8(-128), got)

	_, err = Parse("128", int8(0), DefaultDescriptor())
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = Parse("70000", int16(0), DefaultDescriptor())
	assert.ErrorIs(t, err, ErrInvalidPayload)

	got32, err := Parse("-2147483648", int32(0), DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), got32)
}

func TestParse64BitRequiresCanonicalText(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"canonical", "42", false},
		{"leading zero", "042", true},
		{"plus sign", "+42", true},
		{"negative zero", "-0", true},
		{"overflow", "9223372036854775808", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.payload, int64(0), DefaultDescriptor())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	got, err := Parse("18446744073709551615", uint64(0), DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestParseFloat(t *testing.T) {
	t.Run("trailing garbage", func(t *testing.T) {
		got, err := Parse("1.5x", 2.5, DefaultDescriptor())
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Equal(t, 2.5, got)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := Parse("1e39", float32(0), DefaultDescriptor())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("pattern quantizes stored value", func(t *testing.T) {
		d := Descriptor{Pattern: "%.2f"}

		got, err := Parse("3.14159", 0.0, d)
		require.NoError(t, err)
		assert.Equal(t, 3.14, got)
		assert.Equal(t, "3.14", Format(got, d))
	})

	t.Run("pattern not usable for floats", func(t *testing.T) {
		_, err := Parse("1.5", 0.0, Descriptor{Pattern: "%d"})
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("shortest representation", func(t *testing.T) {
		assert.Equal(t, "0.1", Format(float32(0.1), DefaultDescriptor()))
		assert.Equal(t, "21.5", Format(21.5, DefaultDescriptor()))
	})
}

func TestBool(t *testing.T) {
	t.Run("toggle twice restores", func(t *testing.T) {
		v := false
		for range 2 {
			var err error
			v, err = Parse("toggle", v, DefaultDescriptor())
			require.NoError(t, err)
		}
		assert.False(t, v)

		v, err := Parse("TOGGLE", v, DefaultDescriptor())
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("any accepts every pair", func(t *testing.T) {
		d := Descriptor{Bool: Any}
		for _, truthy := range []string{"on", "yes", "true", "1", "ON"} {
			v, err := Parse(truthy, false, d)
			require.NoError(t, err, truthy)
			assert.True(t, v, truthy)
		}
		for _, falsy := range []string{"off", "no", "false", "0"} {
			v, err := Parse(falsy, true, d)
			require.NoError(t, err, falsy)
			assert.False(t, v, falsy)
		}
		assert.Equal(t, "true", Format(true, d))
		assert.Equal(t, "false", Format(false, d))
	})

	t.Run("fixed pair", func(t *testing.T) {
		d := Descriptor{Bool: OnOff}

		assert.Equal(t, "on", Format(true, d))
		assert.Equal(t, "off", Format(false, d))

		v, err := Parse("off", true, d)
		require.NoError(t, err)
		assert.False(t, v)

		v, err = Parse("yes", false, d)
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, v)
	})
}

func TestString(t *testing.T) {
	got, err := Parse("hello world", "", DefaultDescriptor())
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "x", Format("x", DefaultDescriptor()))
}

func TestParseNames(t *testing.T) {
	b, err := ParseIntegralBase("hex")
	require.NoError(t, err)
	assert.Equal(t, Hexadecimal, b)

	_, err = ParseIntegralBase("bin")
	assert.Error(t, err)

	f, err := ParseBoolFormat("on/off")
	require.NoError(t, err)
	assert.Equal(t, OnOff, f)

	_, err = ParseBoolFormat("maybe")
	assert.Error(t, err)
}
