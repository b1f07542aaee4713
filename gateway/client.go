package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yonagi/retroboard/model"
	"github.com/yonagi/retroboard/session"
)

// Config holds the dependencies for a Client. The session store and HTTP
// client are injected so tests can substitute their own.
type Config struct {
	// BaseURL is the root of the board backend, e.g. "http://localhost:8990".
	BaseURL string
	// Sessions receives the credential established by CreateRoom/JoinRoom
	// and is cleared when the backend reports the token invalid.
	Sessions *session.Store
	// HTTPClient is used for all requests. If nil, http.DefaultClient.
	HTTPClient *http.Client
	// Logger defaults to logrus.StandardLogger.
	Logger *logrus.Logger
}

// Client performs the remote procedures of the room backend. Every
// operation is one round trip; backend-reported failures come back as
// *Error values, never panics.
type Client struct {
	baseURL  string
	sessions *session.Store
	http     *http.Client
	log      *logrus.Logger
}

// New validates the config and builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("gateway: Sessions is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		sessions: cfg.Sessions,
		http:     httpClient,
		log:      log,
	}, nil
}

// call POSTs a JSON body to /rpc/<op> and decodes the response into out,
// which must embed envelope. A failed envelope is turned into a classified
// *Error; invalid-token failures clear the session store so the caller is
// not left retrying with dead credentials.
func (c *Client) call(ctx context.Context, op string, in, out any) error {
	requestID := uuid.NewString()
	body, err := json.Marshal(in)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+op, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "request_id": requestID}).WithError(err).Warn("rpc transport failure")
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), Status: resp.StatusCode}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("malformed response: %v", err), Status: resp.StatusCode}
	}

	env := envelopeOf(out)
	if env == nil || env.Success {
		return nil
	}

	gwErr := &Error{Kind: classify(env.ErrorCode, env.Error), Message: env.Error, Status: resp.StatusCode}
	c.log.WithFields(logrus.Fields{"op": op, "request_id": requestID, "kind": gwErr.Kind}).Warn("rpc failed")
	if gwErr.Kind == KindInvalidToken {
		c.sessions.Clear()
	}
	return gwErr
}

// envelopeOf digs the embedded envelope out of a response struct.
func envelopeOf(out any) *envelope {
	switch v := out.(type) {
	case *roomResponse:
		return &v.envelope
	case *snapshotResponse:
		return &v.envelope
	case *addNoteResponse:
		return &v.envelope
	case *toggleVoteResponse:
		return &v.envelope
	case *envelope:
		return v
	}
	return nil
}

func (c *Client) token() string {
	sess, ok := c.sessions.Current()
	if !ok {
		return ""
	}
	return sess.Token
}

// CreateRoom creates a room, establishes an admin session for its creator
// and persists it.
func (c *Client) CreateRoom(ctx context.Context, name, password, creatorName string) (model.Room, error) {
	var resp roomResponse
	err := c.call(ctx, "create_room", createRoomRequest{
		RoomName:     name,
		RoomPassword: password,
		CreatorName:  creatorName,
	}, &resp)
	if err != nil {
		return model.Room{}, err
	}

	room := model.Room{ID: resp.RoomID, Name: resp.RoomName}
	sess := session.Session{
		Room:     room,
		User:     model.User{Name: creatorName, IsAdmin: true},
		Password: password,
		Token:    resp.SessionToken,
	}
	if err := c.sessions.Persist(sess); err != nil {
		c.log.WithError(err).Warn("could not persist session")
	}
	return room, nil
}

// JoinRoom validates the password server-side and establishes a non-admin
// session.
func (c *Client) JoinRoom(ctx context.Context, roomID, password, userName string) (model.Room, error) {
	var resp roomResponse
	err := c.call(ctx, "join_room", joinRoomRequest{
		RoomID:       roomID,
		RoomPassword: password,
		UserName:     userName,
	}, &resp)
	if err != nil {
		return model.Room{}, err
	}

	room := model.Room{ID: resp.RoomID, Name: resp.RoomName}
	sess := session.Session{
		Room:     room,
		User:     model.User{Name: userName, IsAdmin: false},
		Password: password,
		Token:    resp.SessionToken,
	}
	if err := c.sessions.Persist(sess); err != nil {
		c.log.WithError(err).Warn("could not persist session")
	}
	return room, nil
}

// FetchSnapshot returns the authoritative full room state for the current
// session: room metadata, participant list, every note in every column.
func (c *Client) FetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	var resp snapshotResponse
	if err := c.call(ctx, "get_room_data", snapshotRequest{SessionToken: c.token()}, &resp); err != nil {
		return model.Snapshot{}, err
	}

	notes := make([]model.Note, 0, len(resp.StickyNotes))
	for _, record := range resp.StickyNotes {
		notes = append(notes, record.toNote())
	}
	return model.Snapshot{
		Room:         resp.Room,
		Participants: resp.Participants,
		Notes:        notes,
	}, nil
}

// CreateNote adds a note with the given text (empty is allowed) to a column
// and returns the server-assigned id.
func (c *Client) CreateNote(ctx context.Context, category model.Category, text string) (string, error) {
	var resp addNoteResponse
	err := c.call(ctx, "add_note", addNoteRequest{
		SessionToken: c.token(),
		NoteText:     text,
		ColumnType:   string(category),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.NoteID, nil
}

// UpdateNote replaces a note's text.
func (c *Client) UpdateNote(ctx context.Context, noteID, text string) error {
	var resp envelope
	return c.call(ctx, "update_note", updateNoteRequest{
		SessionToken: c.token(),
		NoteID:       noteID,
		NewText:      text,
	}, &resp)
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	var resp envelope
	return c.call(ctx, "delete_note", deleteNoteRequest{
		SessionToken: c.token(),
		NoteID:       noteID,
	}, &resp)
}

// MoveNote reassigns a note to another column.
func (c *Client) MoveNote(ctx context.Context, noteID string, target model.Category) error {
	var resp envelope
	return c.call(ctx, "move_note", moveNoteRequest{
		SessionToken:  c.token(),
		NoteID:        noteID,
		NewColumnType: string(target),
	}, &resp)
}

// ToggleVote flips the current user's vote on a note and returns the new
// count. A second toggle always undoes the first; there is no multi-vote.
func (c *Client) ToggleVote(ctx context.Context, noteID string) (int, error) {
	var resp toggleVoteResponse
	err := c.call(ctx, "toggle_vote", toggleVoteRequest{
		SessionToken: c.token(),
		NoteID:       noteID,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Votes, nil
}

// ValidateSessionForRoom reports whether the in-memory session belongs to
// roomID and still works against the backend. A live round trip is the only
// way to detect server-side token revocation; on failure the session is
// cleared as a side effect.
func (c *Client) ValidateSessionForRoom(ctx context.Context, roomID string) bool {
	sess, ok := c.sessions.Current()
	if !ok || !c.sessions.IsValid() || sess.Room.ID != roomID {
		return false
	}
	if _, err := c.FetchSnapshot(ctx); err != nil {
		c.log.WithField("room", roomID).WithError(err).Info("session validation failed")
		c.sessions.Clear()
		return false
	}
	return true
}
