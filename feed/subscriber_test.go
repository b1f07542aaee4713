package feed_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonagi/retroboard/feed"
	"github.com/yonagi/retroboard/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// feedServer upgrades the events endpoint and hands the connection to fn.
func feedServer(t *testing.T, fn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		fn(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func recvEvent(t *testing.T, ch <-chan model.Event) model.Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "feed channel closed unexpectedly")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a feed event")
		return model.Event{}
	}
}

func TestSubscribeDeliversEvents(t *testing.T) {
	gotPath := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath <- r.URL.Path + "?" + r.URL.RawQuery
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.WriteJSON(model.Event{
			Channel: model.ChannelNotes,
			Type:    model.EventInsert,
			Note: &model.Note{
				ID: "n1", Text: "", Author: "alice",
				VotedBy: []string{}, Category: model.CategoryToImprove,
			},
		})
		conn.WriteJSON(model.Event{Channel: model.ChannelParticipants, Type: model.EventChange})
	}))
	t.Cleanup(server.Close)

	sub, err := feed.NewSubscriber(server.URL, quietLogger()).
		Subscribe(context.Background(), "r1", "tok")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	path := <-gotPath
	assert.Contains(t, path, "/rooms/r1/events")
	assert.Contains(t, path, "session_token=tok")

	first := recvEvent(t, sub.Events())
	require.NotNil(t, first.Note)
	assert.Equal(t, model.EventInsert, first.Type)
	assert.Equal(t, "n1", first.Note.ID)
	assert.Equal(t, "", first.Note.Text)

	second := recvEvent(t, sub.Events())
	assert.Equal(t, model.ChannelParticipants, second.Channel)
}

func TestUndecodableFramesAreSkipped(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		conn.WriteJSON(model.Event{Channel: model.ChannelNotes, Type: model.EventDelete, NoteID: "n2"})
	})

	sub, err := feed.NewSubscriber(server.URL, quietLogger()).
		Subscribe(context.Background(), "r1", "tok")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	event := recvEvent(t, sub.Events())
	assert.Equal(t, model.EventDelete, event.Type)
	assert.Equal(t, "n2", event.NoteID)
}

func TestChannelClosesWhenServerDrops(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	sub, err := feed.NewSubscriber(server.URL, quietLogger()).
		Subscribe(context.Background(), "r1", "tok")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "channel must close after the connection drops")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	server := feedServer(t, func(conn *websocket.Conn) {
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	sub, err := feed.NewSubscriber(server.URL, quietLogger()).
		Subscribe(context.Background(), "r1", "tok")
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after unsubscribe")
	}
}

func TestSubscribeDialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := feed.NewSubscriber(server.URL, quietLogger()).
		Subscribe(context.Background(), "r1", "tok")
	assert.Error(t, err)
}
