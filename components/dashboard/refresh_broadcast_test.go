package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	event := WidgetEvent{AreaCode: TabHotSwap}
	if err := hook.WidgetUpdated(context.Background(), event); err != nil {
		t.Fatalf("WidgetUpdated returned error: %v", err)
	}
	select {
	case e := <-ch:
		if e.AreaCode != event.AreaCode {
			t.Fatalf("expected area %s, got %s", event.AreaCode, e.AreaCode)
		}
	default:
		t.Fatalf("expected event to be delivered")
	}
}

func TestBroadcastHookFiltersByWidget(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe(WidgetAIModels)
	defer cancel()

	_ = hook.WidgetUpdated(context.Background(), WidgetEvent{Instance: WidgetInstance{DefinitionID: WidgetDeployments}})
	_ = hook.WidgetUpdated(context.Background(), WidgetEvent{Instance: WidgetInstance{DefinitionID: WidgetAIModels}})

	select {
	case e := <-ch:
		assert.Equal(t, WidgetAIModels, e.Instance.DefinitionID)
	default:
		t.Fatalf("expected filtered event")
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %#v", e)
	default:
	}
}

func TestBroadcastHookCancelAndClose(t *testing.T) {
	hook := NewBroadcastHook()
	first, cancelFirst := hook.Subscribe()
	second, _ := hook.Subscribe()
	assert.Equal(t, 2, hook.Subscribers())

	cancelFirst()
	cancelFirst()
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, hook.Subscribers())

	hook.Close()
	_, open = <-second
	assert.False(t, open)
	assert.Equal(t, 0, hook.Subscribers())

	late, cancel := hook.Subscribe()
	defer cancel()
	_, open = <-late
	assert.False(t, open)
	assert.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{}))
}

func TestBroadcastHookDropsWhenSubscriberIsFull(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, hook.WidgetUpdated(context.Background(), WidgetEvent{Reason: ReasonPoll}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcastHookServeWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	srv := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?widgets=" + WidgetDeployments
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	_ = hook.WidgetUpdated(context.Background(), WidgetEvent{Instance: WidgetInstance{DefinitionID: WidgetAIModels}})
	_ = hook.WidgetUpdated(context.Background(), WidgetEvent{
		AreaCode: TabHotSwap,
		Reason:   ReasonPoll,
		Instance: WidgetInstance{DefinitionID: WidgetDeployments},
		Data:     WidgetData{"active": "abc12345"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got WidgetEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, WidgetDeployments, got.Instance.DefinitionID)
	assert.Equal(t, "abc12345", got.Data["active"])
}

func TestBroadcastHookServeSSE(t *testing.T) {
	hook := NewBroadcastHook()
	srv := httptest.NewServer(http.HandlerFunc(hook.ServeSSE))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	_ = hook.WidgetUpdated(context.Background(), WidgetEvent{AreaCode: TabModels, Reason: ReasonMutate})

	reader := bufio.NewReader(resp.Body)
	eventLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: mutate\n", eventLine)
	dataLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataLine, "data: "))

	var got WidgetEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &got))
	assert.Equal(t, TabModels, got.AreaCode)
}
