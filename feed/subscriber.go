package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yonagi/retroboard/model"
)

const (
	// Time allowed to write a control message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber dials change-feed subscriptions against the board backend.
type Subscriber struct {
	baseURL string
	dialer  *websocket.Dialer
	log     *logrus.Logger
}

// NewSubscriber builds a Subscriber for the backend at serverURL (http or
// https; the websocket scheme is derived from it).
func NewSubscriber(serverURL string, log *logrus.Logger) *Subscriber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Subscriber{
		baseURL: strings.TrimRight(serverURL, "/"),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Subscription is one live per-room feed. Consume Events until it closes;
// call Unsubscribe when the view is torn down.
type Subscription struct {
	conn   *websocket.Conn
	events chan model.Event
	done   chan struct{}
	once   sync.Once
	log    *logrus.Entry
}

// Subscribe opens the logical subscription for one room visit. All note,
// vote and participant events scoped to that room arrive on the returned
// subscription's channel until Unsubscribe or a connection loss closes it.
func (s *Subscriber) Subscribe(ctx context.Context, roomID, token string) (*Subscription, error) {
	wsURL, err := s.feedURL(roomID, token)
	if err != nil {
		return nil, err
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", roomID, err)
	}

	sub := &Subscription{
		conn:   conn,
		events: make(chan model.Event, 64),
		done:   make(chan struct{}),
		log:    s.log.WithField("room", roomID),
	}
	go sub.readLoop()
	go sub.pingLoop()

	sub.log.Info("subscribed to room feed")
	return sub, nil
}

func (s *Subscriber) feedURL(roomID, token string) (string, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("feed: invalid server URL: %w", err)
	}
	switch base.Scheme {
	case "https":
		base.Scheme = "wss"
	default:
		base.Scheme = "ws"
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/rooms/" + url.PathEscape(roomID) + "/events"
	base.RawQuery = url.Values{"session_token": {token}}.Encode()
	return base.String(), nil
}

// Events is the feed channel. It closes when the subscription ends, from
// either side.
func (sub *Subscription) Events() <-chan model.Event {
	return sub.events
}

// Unsubscribe tears the subscription down. Safe to call more than once and
// after the connection already died.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		close(sub.done)
		sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		sub.conn.Close()
		sub.log.Info("unsubscribed from room feed")
	})
}

// readLoop pumps decoded events into the channel until the connection
// drops. Frames that do not decode are logged and skipped; the eventual
// snapshot refetch covers whatever they carried.
func (sub *Subscription) readLoop() {
	defer close(sub.events)

	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := sub.conn.ReadMessage()
		if err != nil {
			select {
			case <-sub.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sub.log.WithError(err).Warn("feed connection lost")
				}
			}
			return
		}
		var event model.Event
		if err := json.Unmarshal(message, &event); err != nil {
			sub.log.WithError(err).Warn("dropping undecodable feed frame")
			continue
		}
		select {
		case sub.events <- event:
		case <-sub.done:
			return
		}
	}
}

func (sub *Subscription) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-sub.done:
			return
		}
	}
}
