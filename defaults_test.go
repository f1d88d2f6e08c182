package mqttree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/mqttree/codec"
)

func TestTopicOrder(t *testing.T) {
	tests := []struct {
		input string
		want  TopicOrder
		err   bool
	}{
		{"", OrderUnspecified, false},
		{"top-down", TopDown, false},
		{"TopDown", TopDown, false},
		{"bottom-up", BottomUp, false},
		{"bottomup", BottomUp, false},
		{"sideways", OrderUnspecified, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTopicOrder(tt.input)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "top-down", TopDown.String())
	assert.Equal(t, "bottom-up", BottomUp.String())
	assert.Equal(t, "unspecified", OrderUnspecified.String())
	assert.Equal(t, "unknown", TopicOrder(9).String())
}

func TestApplyPattern(t *testing.T) {
	assert.Equal(t, "a/b/set", applyPattern(DefaultSetPattern, "a/b"))
	assert.Equal(t, "tele/a/b", applyPattern("tele/%s", "a/b"))
	assert.Equal(t, "x/a/%s", applyPattern("x/%s/%s", "a"))
	assert.Equal(t, "fixed", applyPattern("fixed", "a"))
}

func TestDefaultsNormalize(t *testing.T) {
	d := Defaults{
		Config:       Settable | changedFlag | needsPublish,
		SetPattern:   "cmd/%s",
		Format:       codec.Descriptor{Pattern: "%.1f"},
		JSONMaxDepth: 3,
	}.normalize()

	assert.Equal(t, Settable, d.Config)
	assert.Equal(t, TopDown, d.Order)
	assert.Equal(t, DefaultTopicPattern, d.TopicPattern)
	assert.Equal(t, DefaultRequestPattern, d.RequestPattern)
	assert.Equal(t, "cmd/%s", d.SetPattern)
	assert.Equal(t, codec.Decimal, d.Format.Base)
	assert.Equal(t, "%.1f", d.Format.Pattern)
	assert.Equal(t, DefaultArenaSize, d.ArenaSize)
	assert.Equal(t, DefaultJSONBufferSize, d.JSONBufferSize)
	assert.Equal(t, 3, d.JSONMaxDepth)

	assert.Equal(t, NewDefaults(), NewDefaults().normalize())
}
