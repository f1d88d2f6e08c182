package mqttree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitalvas/mqttree/codec"
)

func TestFullTopic(t *testing.T) {
	t.Run("top down", func(t *testing.T) {
		c := NewClient("device")
		temp := AddValue(c.AddGroup("sensors"), "temp", 20)

		assert.Equal(t, "device", c.FullTopic())
		assert.Equal(t, "device/sensors/temp", temp.FullTopic())
		assert.Equal(t, "temp/sensors/device", temp.FullTopicOrder(BottomUp))
	})

	t.Run("bottom up", func(t *testing.T) {
		c := NewClient("device", WithTopicOrder(BottomUp))
		temp := AddValue(c.AddGroup("sensors"), "temp", 20)

		assert.Equal(t, BottomUp, c.TopicOrder())
		assert.Equal(t, "temp/sensors/device", temp.FullTopic())
		assert.Equal(t, "temp/sensors/device", temp.PublishTopic())
		assert.Equal(t, "temp/sensors/device/set", temp.SetTopic())
		assert.Equal(t, "temp/sensors/device/get", temp.RequestTopic())
	})

	t.Run("group override", func(t *testing.T) {
		c := NewClient("device")
		sensors := c.AddGroup("sensors").SetTopicOrder(BottomUp)
		temp := AddValue(sensors, "temp", 20)
		deep := AddValue(sensors.AddGroup("deep"), "x", 1)
		top := AddValue(c.Group, "top", 1)

		assert.Equal(t, "sensors/device", sensors.FullTopic())
		assert.Equal(t, "temp/sensors/device", temp.FullTopic())
		assert.Equal(t, "x/deep/sensors/device", deep.FullTopic())
		assert.Equal(t, "device/top", top.FullTopic())
		assert.Equal(t, TopDown, c.TopicOrder())
	})

	t.Run("absolute name", func(t *testing.T) {
		c := NewClient("device")
		ext := c.AddGroup("/ext")
		v := AddValue(ext, "x", 1)
		bare := AddValue(c.AddGroup("/"), "y", 2)

		assert.True(t, IsAbsolute(ext.FullTopic()))
		assert.Equal(t, "/ext", ext.FullTopic())
		assert.Equal(t, "/ext/x", v.FullTopic())
		assert.Equal(t, "/x/ext", v.FullTopicOrder(BottomUp))
		assert.Equal(t, "/y", bare.FullTopic())

		assert.Equal(t, "/ext/x", v.PublishTopic())
		assert.Equal(t, "/ext/x", v.SetTopic())
		assert.Empty(t, v.RequestTopic())
		assert.Equal(t, "/ext/x/get", v.SetRequestable(true).RequestTopic())
		assert.Equal(t, "ext/x", FinalTopic(v.PublishTopic()))
	})
}

func TestTopicPatterns(t *testing.T) {
	c := NewClient("device")
	g := c.AddGroup("g").
		SetTopicPattern("state/%s").
		SetRequestPattern("cmd/%s/read").
		SetSetPattern("cmd/%s/write")
	v := AddValue(g, "v", 1)
	nested := AddValue(g.AddGroup("n"), "w", 2)
	plain := AddValue(c.Group, "plain", 3)

	assert.Equal(t, "state/device/g/v", v.PublishTopic())
	assert.Equal(t, "cmd/device/g/v/read", v.RequestTopic())
	assert.Equal(t, "cmd/device/g/v/write", v.SetTopic())

	assert.Equal(t, "state/device/g/n/w", nested.PublishTopic())
	assert.Equal(t, "cmd/device/g/n/w/write", nested.SetTopic())

	assert.Equal(t, "device/plain", plain.PublishTopic())
	assert.Equal(t, "device/plain/set", plain.SetTopic())

	d := NewDefaults()
	d.TopicPattern = "tele/%s"
	d.SetPattern = "%s/cmnd"
	c2 := NewClient("device", WithDefaults(d))
	u := AddValue(c2.Group, "u", 1)

	assert.Equal(t, "tele/device/u", u.PublishTopic())
	assert.Equal(t, "device/u/cmnd", u.SetTopic())
	assert.Equal(t, "device/u/get", u.RequestTopic())
}

func TestSubTopicsFollowFlags(t *testing.T) {
	c := NewClient("device")
	v := AddValue(c.Group, "v", 1)

	v.SetRequestable(false)
	assert.Empty(t, v.RequestTopic())
	assert.Equal(t, "device/v/set", v.SetTopic())

	v.SetSettable(false)
	assert.Empty(t, v.SetTopic())
	assert.Equal(t, "device/v", v.PublishTopic())

	g := c.AddGroup("g")
	assert.Empty(t, g.SetTopic())
	assert.Equal(t, "device/g/get", g.RequestTopic())

	subs := c.subscriptions(nil)
	topics := make([]string, 0, len(subs))
	for _, s := range subs {
		topics = append(topics, s.topic)
	}
	assert.Equal(t, []string{"device/get", "device/g/get"}, topics)
}

func TestInheritance(t *testing.T) {
	c := NewClient("device", WithConfig(AutoPublish|Retained|QoS1))

	g := c.AddGroup("g")
	before := AddValue(g, "before", 255)
	g.SetQoS(2).SetBase(codec.Hexadecimal).SetRetained(false)
	after := AddValue(g, "after", 255)

	assert.Equal(t, byte(1), c.QoS())
	assert.True(t, g.IsRetained())
	assert.False(t, g.IsSettable())

	assert.Equal(t, byte(1), before.QoS())
	assert.True(t, before.IsRetained())
	assert.False(t, before.IsSettable())
	assert.False(t, before.IsRequestable())
	assert.Equal(t, "255", before.Payload())

	assert.Equal(t, byte(2), after.QoS())
	assert.False(t, after.IsRetained())
	assert.Equal(t, "ff", after.Payload())
	assert.Equal(t, codec.Hexadecimal, after.Format().Base)

	assert.False(t, after.HasBeenChanged(false))
	assert.True(t, after.NeedsPublish())
}
