package mqttree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerInterceptors(t *testing.T) {
	logger := NewNoOpLogger()

	t.Run("chain order", func(t *testing.T) {
		var order []string
		first := ProducerInterceptorFunc(func(msg *Message) *Message {
			order = append(order, "first")
			msg.Topic = "a/" + msg.Topic
			return msg
		})
		second := ProducerInterceptorFunc(func(msg *Message) *Message {
			order = append(order, "second")
			msg.Topic = "b/" + msg.Topic
			return msg
		})

		got := applyProducerInterceptors(logger, []ProducerInterceptor{first, second}, &Message{Topic: "t"})
		require.NotNil(t, got)
		assert.Equal(t, "b/a/t", got.Topic)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("nil breaks chain", func(t *testing.T) {
		called := false
		drop := ProducerInterceptorFunc(func(*Message) *Message { return nil })
		after := ProducerInterceptorFunc(func(msg *Message) *Message {
			called = true
			return msg
		})

		assert.Nil(t, applyProducerInterceptors(logger, []ProducerInterceptor{drop, after}, &Message{Topic: "t"}))
		assert.False(t, called)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		buf := &bytes.Buffer{}
		panicky := ProducerInterceptorFunc(func(*Message) *Message { panic("boom") })

		msg := &Message{Topic: "t"}
		got := applyProducerInterceptors(NewStdLogger(buf, LogLevelError), []ProducerInterceptor{panicky}, msg)
		assert.Same(t, msg, got)
		assert.True(t, strings.Contains(buf.String(), "producer interceptor panic"))
	})

	t.Run("empty chain", func(t *testing.T) {
		msg := &Message{Topic: "t"}
		assert.Same(t, msg, applyProducerInterceptors(logger, nil, msg))
	})
}

func TestConsumerInterceptors(t *testing.T) {
	logger := NewNoOpLogger()

	upper := ConsumerInterceptorFunc(func(msg *Message) *Message {
		msg.Payload = bytes.ToUpper(msg.Payload)
		return msg
	})
	panicky := ConsumerInterceptorFunc(func(*Message) *Message { panic("boom") })

	got := applyConsumerInterceptors(logger, []ConsumerInterceptor{upper, panicky}, &Message{Payload: []byte("on")})
	require.NotNil(t, got)
	assert.Equal(t, "ON", string(got.Payload))
}

func TestMessageClone(t *testing.T) {
	msg := &Message{Topic: "t", Payload: []byte("x"), QoS: 1, Retain: true}
	clone := msg.Clone()

	clone.Payload[0] = 'y'
	assert.Equal(t, "x", string(msg.Payload))
	assert.Equal(t, msg.Topic, clone.Topic)
	assert.True(t, clone.Retain)

	var nilMsg *Message
	assert.Nil(t, nilMsg.Clone())
}
