package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	payload string
}

func TestPublisher_PublishNoSubscribers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *testEvent) {
		t.Error("should not be called")
	})
	type otherEvent struct{}
	publisher.Publish(&otherEvent{})

	require.True(t, strings.Contains(logBuffer.String(), "no matching subscribers"))
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())

	var got string
	publisher.Subscribe(func(e *testEvent) {
		got = e.payload
	})
	publisher.Publish(&testEvent{payload: "batch done"})

	require.Equal(t, "batch done", got)
	require.Equal(t, 1, publisher.SubscribersCount())
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())

	handler := func(e *testEvent) {}
	publisher.Subscribe(handler)
	require.Equal(t, 1, publisher.SubscribersCount())

	publisher.Unsubscribe(handler)
	require.Equal(t, 0, publisher.SubscribersCount())
}
