package mqttree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransportConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("stores will", func(t *testing.T) {
		tr := NewMemoryTransport()
		require.NoError(t, tr.Connect(ctx, &Message{Topic: "dev/status", Payload: []byte("offline")}))

		assert.True(t, tr.IsConnected())
		assert.Equal(t, 1, tr.Connects())
		require.NotNil(t, tr.Will())
		assert.Equal(t, "offline", string(tr.Will().Payload))
	})

	t.Run("injected failure", func(t *testing.T) {
		tr := NewMemoryTransport()
		boom := errors.New("refused")
		tr.FailConnect(boom)

		assert.ErrorIs(t, tr.Connect(ctx, nil), boom)
		assert.False(t, tr.IsConnected())

		tr.FailConnect(nil)
		assert.NoError(t, tr.Connect(ctx, nil))
	})

	t.Run("cancelled context", func(t *testing.T) {
		tr := NewMemoryTransport()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, tr.Connect(cctx, nil), context.Canceled)
	})
}

func TestMemoryTransportPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("requires connection", func(t *testing.T) {
		tr := NewMemoryTransport()
		assert.ErrorIs(t, tr.Publish(ctx, &Message{Topic: "a"}), ErrNotConnected)
	})

	t.Run("rejects wildcard topic", func(t *testing.T) {
		tr := NewMemoryTransport()
		require.NoError(t, tr.Connect(ctx, nil))

		err := tr.Publish(ctx, &Message{Topic: "a/#"})
		assert.ErrorIs(t, err, ErrPublishFailed)
		assert.ErrorIs(t, err, ErrInvalidTopicName)
	})

	t.Run("records and retains", func(t *testing.T) {
		tr := NewMemoryTransport()
		require.NoError(t, tr.Connect(ctx, nil))

		require.NoError(t, tr.Publish(ctx, &Message{Topic: "a", Payload: []byte("1"), Retain: true}))
		require.NoError(t, tr.Publish(ctx, &Message{Topic: "a", Payload: []byte("2")}))

		msg, ok := tr.Retained("a")
		require.True(t, ok)
		assert.Equal(t, "1", string(msg.Payload))

		last, ok := tr.LastPublished("a")
		require.True(t, ok)
		assert.Equal(t, "2", string(last.Payload))
		assert.Len(t, tr.Published(), 2)

		require.NoError(t, tr.Publish(ctx, &Message{Topic: "a", Retain: true}))
		_, ok = tr.Retained("a")
		assert.False(t, ok)

		tr.ClearPublished()
		assert.Empty(t, tr.Published())
	})

	t.Run("injected failure", func(t *testing.T) {
		tr := NewMemoryTransport()
		require.NoError(t, tr.Connect(ctx, nil))
		tr.FailPublish(errors.New("queue full"))

		assert.ErrorIs(t, tr.Publish(ctx, &Message{Topic: "a"}), ErrPublishFailed)
		assert.Empty(t, tr.Published())
	})
}

func TestMemoryTransportSubscribe(t *testing.T) {
	ctx := context.Background()

	tr := NewMemoryTransport()
	assert.ErrorIs(t, tr.Subscribe(ctx, "a", 0, func(*Message) {}), ErrNotConnected)

	require.NoError(t, tr.Connect(ctx, nil))
	require.NoError(t, tr.Publish(ctx, &Message{Topic: "dev/x", Payload: []byte("r"), Retain: true}))

	var got []string
	require.NoError(t, tr.Subscribe(ctx, "dev/#", 0, func(msg *Message) {
		got = append(got, msg.Topic+"="+string(msg.Payload))
	}))
	assert.Equal(t, []string{"dev/x=r"}, got)

	tr.Inject("dev/y", []byte("in"))
	tr.Inject("other", []byte("ignored"))
	require.NoError(t, tr.Publish(ctx, &Message{Topic: "dev/z", Payload: []byte("loop")}))

	assert.Equal(t, []string{"dev/x=r", "dev/y=in", "dev/z=loop"}, got)
	assert.Equal(t, []string{"dev/#"}, tr.Subscriptions())

	assert.ErrorIs(t, tr.Subscribe(ctx, "bad/#/x", 0, func(*Message) {}), ErrSubscribeFailed)
}

func TestMemoryTransportDisconnect(t *testing.T) {
	ctx := context.Background()

	tr := NewMemoryTransport()
	require.NoError(t, tr.Connect(ctx, &Message{Topic: "dev/status", Payload: []byte("offline"), Retain: true}))

	tr.Disconnect()
	assert.False(t, tr.IsConnected())

	msg, ok := tr.Retained("dev/status")
	require.True(t, ok)
	assert.Equal(t, "offline", string(msg.Payload))

	tr.Disconnect()
	assert.Len(t, tr.Published(), 1)
}
