package router

import (
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/mqttree"
)

func TestRouterHandle(t *testing.T) {
	r := New()

	var called bool
	r.Handle(func(_ *mqttree.Message) {
		called = true
	}, WithTopic("test/topic"))

	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Route(&mqttree.Message{Topic: "test/topic"}))
	assert.True(t, called)
}

func TestRouterExactMatch(t *testing.T) {
	r := New()

	var received string
	r.Handle(func(msg *mqttree.Message) {
		received = msg.Topic
	}, WithTopic("sensors/temperature"))

	r.Route(&mqttree.Message{Topic: "sensors/temperature"})
	assert.Equal(t, "sensors/temperature", received)

	received = ""
	assert.False(t, r.Route(&mqttree.Message{Topic: "sensors/humidity"}))
	assert.Empty(t, received)
}

func TestRouterWildcards(t *testing.T) {
	tests := []struct {
		filter  string
		topics  []string
		matched int
	}{
		{"sensors/+/value", []string{"sensors/temp/value", "sensors/hum/value", "sensors/temp/other"}, 2},
		{"sensors/#", []string{"sensors", "sensors/temp", "sensors/a/b/c", "other/topic"}, 3},
		{"+/status", []string{"device/status", "device/status/x", "status"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			r := New()

			var topics []string
			r.Handle(func(msg *mqttree.Message) {
				topics = append(topics, msg.Topic)
			}, WithTopic(tt.filter))

			for _, topic := range tt.topics {
				r.Route(&mqttree.Message{Topic: topic})
			}
			assert.Len(t, topics, tt.matched)
		})
	}
}

func TestRouterMultipleHandlers(t *testing.T) {
	r := New()

	var calls atomic.Int32
	r.Handle(func(_ *mqttree.Message) { calls.Add(1) }, WithTopic("a/#"))
	r.Handle(func(_ *mqttree.Message) { calls.Add(1) }, WithTopic("a/b"))
	r.Handle(func(_ *mqttree.Message) { calls.Add(1) }, WithTopic("c/#"))

	r.Route(&mqttree.Message{Topic: "a/b"})
	assert.Equal(t, int32(2), calls.Load())
}

func TestRouterFilters(t *testing.T) {
	r := New()

	r.Handle(func(_ *mqttree.Message) {}, WithTopic("b/#"))
	r.Handle(func(_ *mqttree.Message) {}, WithTopic("a/+"))
	r.Handle(func(_ *mqttree.Message) {}, WithTopic("b/#"))
	r.Handle(func(_ *mqttree.Message) {})

	assert.Equal(t, []string{"a/+", "b/#"}, r.Filters())
}

func TestRouterClear(t *testing.T) {
	r := New()

	r.Handle(func(_ *mqttree.Message) {}, WithTopic("a"))
	r.Handle(func(_ *mqttree.Message) {}, WithTopic("b"))
	require.Equal(t, 2, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Filters())
}

func TestRouterNilMessage(t *testing.T) {
	r := New()

	var called bool
	r.Handle(func(_ *mqttree.Message) {
		called = true
	})

	assert.False(t, r.Route(nil))
	assert.False(t, called)
}

func TestRouterMessageHandler(t *testing.T) {
	r := New()

	var received string
	r.Handle(func(msg *mqttree.Message) {
		received = msg.Topic
	}, WithTopic("test/topic"))

	handler := r.MessageHandler()
	handler(&mqttree.Message{Topic: "test/topic"})

	assert.Equal(t, "test/topic", received)
}

func TestRouterWithQoS(t *testing.T) {
	r := New()

	var qos0Called, qos1Called bool
	r.Handle(func(_ *mqttree.Message) {
		qos0Called = true
	}, WithTopic("sensors/#"), WithQoS(0))
	r.Handle(func(_ *mqttree.Message) {
		qos1Called = true
	}, WithTopic("sensors/#"), WithQoS(1))

	r.Route(&mqttree.Message{Topic: "sensors/temp", QoS: 1})

	assert.False(t, qos0Called)
	assert.True(t, qos1Called)
}

func TestRouterWithRetain(t *testing.T) {
	r := New()

	var retained, live int
	r.Handle(func(_ *mqttree.Message) { retained++ }, WithRetain(true))
	r.Handle(func(_ *mqttree.Message) { live++ }, WithRetain(false))

	r.Route(&mqttree.Message{Topic: "a", Retain: true})
	r.Route(&mqttree.Message{Topic: "a"})
	r.Route(&mqttree.Message{Topic: "b"})

	assert.Equal(t, 1, retained)
	assert.Equal(t, 2, live)
}

func TestRouterWithPayload(t *testing.T) {
	r := New()

	var commands []string
	r.Handle(func(msg *mqttree.Message) {
		commands = append(commands, string(msg.Payload))
	}, WithTopic("cmd/+"), WithPayload(regexp.MustCompile(`^(reboot|reset)$`)))

	r.Route(&mqttree.Message{Topic: "cmd/system", Payload: []byte("reboot")})
	r.Route(&mqttree.Message{Topic: "cmd/system", Payload: []byte("shutdown")})
	r.Route(&mqttree.Message{Topic: "cmd/system", Payload: []byte("reset")})

	assert.Equal(t, []string{"reboot", "reset"}, commands)
}

func TestRouterWithJSONField(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		match   bool
	}{
		{"matching field", `{"level":"error","msg":"x"}`, true},
		{"nested field", `{"level":"error","meta":{"source":"fan"}}`, true},
		{"other value", `{"level":"info"}`, false},
		{"missing field", `{"msg":"x"}`, false},
		{"not json", `level=error`, false},
	}

	r := New()
	var matched int
	r.Handle(func(_ *mqttree.Message) {
		matched++
	}, WithTopic("events/#"), WithJSONField("level", regexp.MustCompile(`^error$`)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched = 0
			got := r.Route(&mqttree.Message{Topic: "events/device", Payload: []byte(tt.payload)})
			assert.Equal(t, tt.match, got)
			assert.Equal(t, tt.match, matched == 1)
		})
	}
}

func TestRouterWithMultipleJSONFields(t *testing.T) {
	r := New()

	var called bool
	r.Handle(func(_ *mqttree.Message) {
		called = true
	},
		WithJSONField("level", regexp.MustCompile(`^error$`)),
		WithJSONField("meta.source", regexp.MustCompile(`^fan`)),
	)

	r.Route(&mqttree.Message{Topic: "e", Payload: []byte(`{"level":"error","meta":{"source":"pump"}}`)})
	assert.False(t, called)

	r.Route(&mqttree.Message{Topic: "e", Payload: []byte(`{"level":"error","meta":{"source":"fan-2"}}`)})
	assert.True(t, called)
}

func TestRouterAsFallback(t *testing.T) {
	transport := mqttree.NewMemoryTransport()

	r := New()
	var received []string
	r.Handle(func(msg *mqttree.Message) {
		received = append(received, msg.Topic+"="+string(msg.Payload))
	}, WithTopic("broadcast/#"))

	client := mqttree.NewClient("device",
		mqttree.WithTransport(transport),
		mqttree.WithFallbackHandler(r.MessageHandler()),
		mqttree.WithSubscriptions(r.Filters()...),
	)
	mqttree.AddValue(client.Group, "count", 1)

	ctx := t.Context()
	require.Equal(t, mqttree.StateReconnected, client.Handle(ctx))
	require.Equal(t, mqttree.StateConnected, client.Handle(ctx))

	transport.Inject("broadcast/time", []byte("12:00"))
	client.Handle(ctx)

	assert.Equal(t, []string{"broadcast/time=12:00"}, received)
}

func TestRouterConcurrentAccess(t *testing.T) {
	r := New()

	done := make(chan struct{})
	for i := range 10 {
		go func(n int) {
			r.Handle(func(_ *mqttree.Message) {}, WithTopic("topic/"+string(rune('a'+n))))
			done <- struct{}{}
		}(i)
	}
	for range 10 {
		<-done
	}

	for range 10 {
		go func() {
			r.Route(&mqttree.Message{Topic: "topic/a"})
			done <- struct{}{}
		}()
	}
	for range 10 {
		<-done
	}

	assert.Equal(t, 10, r.Len())
}
