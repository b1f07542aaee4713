package board

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yonagi/retroboard/model"
	"github.com/yonagi/retroboard/session"
)

// ReloadThrottle is the minimum spacing between participant-triggered
// snapshot reloads. Many people joining at once must not produce as many
// redundant full refetches.
const ReloadThrottle = time.Second

// Gateway is the remote room backend as the orchestrator sees it. The
// production implementation is gateway.Client; tests substitute a fake.
type Gateway interface {
	CreateRoom(ctx context.Context, name, password, creatorName string) (model.Room, error)
	JoinRoom(ctx context.Context, roomID, password, userName string) (model.Room, error)
	FetchSnapshot(ctx context.Context) (model.Snapshot, error)
	CreateNote(ctx context.Context, category model.Category, text string) (string, error)
	UpdateNote(ctx context.Context, noteID, text string) error
	DeleteNote(ctx context.Context, noteID string) error
	MoveNote(ctx context.Context, noteID string, target model.Category) error
	ToggleVote(ctx context.Context, noteID string) (int, error)
	ValidateSessionForRoom(ctx context.Context, roomID string) bool
}

// Subscription is a live change feed for one room visit.
type Subscription interface {
	Events() <-chan model.Event
	Unsubscribe()
}

// SubscribeFunc opens the change feed for a room.
type SubscribeFunc func(ctx context.Context, roomID, token string) (Subscription, error)

// Orchestrator sequences session restoration, snapshot loading and feed
// subscription for a room visit, and maps user gestures onto gateway calls
// plus reducer actions. It owns no view model: the event loop that calls it
// applies the returned actions, so every state transition happens on that
// one loop.
type Orchestrator struct {
	gw        Gateway
	sessions  *session.Store
	subscribe SubscribeFunc
	log       *logrus.Logger

	// generation identifies the current mount. Results issued under an
	// older generation are stale and must be dropped by the caller, else a
	// late dispatch can resurrect an abandoned view.
	generation atomic.Uint64

	mu         sync.Mutex
	sub        Subscription
	loadedRoom string
	lastReload time.Time
}

// NewOrchestrator wires the orchestrator's collaborators. All of them are
// injected; nothing here reaches for globals.
func NewOrchestrator(gw Gateway, sessions *session.Store, subscribe SubscribeFunc, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{gw: gw, sessions: sessions, subscribe: subscribe, log: log}
}

// Generation returns the current mount's generation. Capture it when
// issuing an asynchronous call and check it with Live before applying the
// result.
func (o *Orchestrator) Generation() uint64 {
	return o.generation.Load()
}

// Live reports whether a result issued under gen still belongs to the
// current mount.
func (o *Orchestrator) Live(gen uint64) bool {
	return o.generation.Load() == gen
}

// EnterOutcome is how entering a room view resolved. Either the room is
// loaded and subscribed (Actions carry the full state), or the caller must
// redirect the user to the join flow, carrying RoomID forward to prefill
// the form.
type EnterOutcome struct {
	Actions  []Action
	Redirect bool
	RoomID   string
}

// Enter attempts to take the user straight into roomID: restore a stored
// session, validate it against the backend, load the snapshot and open the
// feed. The legacy fallback rejoins with the retained password when the
// token no longer validates. On total failure the outcome is a redirect.
func (o *Orchestrator) Enter(ctx context.Context, roomID string) EnterOutcome {
	// Re-entering the room that is already loaded and subscribed is a no-op;
	// the state the caller holds is still live.
	if o.isLoaded(roomID) {
		return EnterOutcome{}
	}

	restored, ok := o.sessions.Restore()

	if o.gw.ValidateSessionForRoom(ctx, roomID) {
		return o.load(ctx, roomID, restored.User)
	}

	// The token did not validate (or belonged to another room). If the
	// stored record kept credentials for this room, rejoin with them.
	if ok && restored.Room.ID == roomID && restored.Password != "" && restored.User.Name != "" {
		if _, err := o.gw.JoinRoom(ctx, roomID, restored.Password, restored.User.Name); err == nil {
			return o.load(ctx, roomID, restored.User)
		}
	}

	o.log.WithField("room", roomID).Info("no usable session, redirecting to join flow")
	return EnterOutcome{Redirect: true, RoomID: roomID}
}

// CreateRoomAndEnter creates a room, becomes its admin and loads the board.
// The error is returned alongside the outcome so the form can map error
// kinds onto its fields.
func (o *Orchestrator) CreateRoomAndEnter(ctx context.Context, name, password, creatorName string) (EnterOutcome, error) {
	room, err := o.gw.CreateRoom(ctx, name, password, creatorName)
	if err != nil {
		return EnterOutcome{}, err
	}
	return o.load(ctx, room.ID, model.User{Name: creatorName, IsAdmin: true}), nil
}

// JoinRoomAndEnter joins an existing room with credentials from the join
// form and loads the board.
func (o *Orchestrator) JoinRoomAndEnter(ctx context.Context, roomID, password, userName string) (EnterOutcome, error) {
	room, err := o.gw.JoinRoom(ctx, roomID, password, userName)
	if err != nil {
		return EnterOutcome{}, err
	}
	return o.load(ctx, room.ID, model.User{Name: userName, IsAdmin: false}), nil
}

// load fetches the snapshot and opens the subscription for the validated
// session.
func (o *Orchestrator) load(ctx context.Context, roomID string, user model.User) EnterOutcome {
	snap, err := o.gw.FetchSnapshot(ctx)
	if err != nil {
		return EnterOutcome{Redirect: true, RoomID: roomID}
	}

	sub, err := o.subscribe(ctx, snap.Room.ID, o.currentToken())
	if err != nil {
		// The board is still usable without live updates; the error is
		// surfaced and manual refetches keep working.
		o.log.WithError(err).Warn("could not open change feed")
	} else {
		o.setSubscription(sub, snap.Room.ID)
	}

	return EnterOutcome{Actions: []Action{
		SetRoom{Room: snap.Room},
		SetUser{User: user},
		SetParticipants{Participants: snap.Participants},
		SetAllNotes{Buckets: Partition(snap.Notes)},
		SetLoading{Loading: false},
		ClearError{},
	}}
}

func (o *Orchestrator) currentToken() string {
	sess, ok := o.sessions.Current()
	if !ok {
		return ""
	}
	return sess.Token
}

func (o *Orchestrator) setSubscription(sub Subscription, roomID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sub != nil {
		o.sub.Unsubscribe()
	}
	o.sub = sub
	o.loadedRoom = roomID
}

// isLoaded reports whether roomID is the room currently loaded with a live
// subscription. Without the subscription a refetch is the right call, so a
// snapshot-only load does not count.
func (o *Orchestrator) isLoaded(roomID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return roomID != "" && o.sub != nil && o.loadedRoom == roomID
}

// Events returns the current feed channel, nil when not subscribed.
func (o *Orchestrator) Events() <-chan model.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sub == nil {
		return nil
	}
	return o.sub.Events()
}

// Leave tears the visit down: the feed is unsubscribed and the generation
// advances so in-flight results from this visit are dropped on arrival.
func (o *Orchestrator) Leave() {
	o.generation.Add(1)
	o.mu.Lock()
	sub := o.sub
	o.sub = nil
	o.loadedRoom = ""
	o.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// HandleEvent maps one feed event to reducer actions. Vote events are
// deliberately not reconciled from the feed: the actor that toggled already
// reconciled synchronously, and consuming a slightly-stale echo on top
// would race it. Participant events request a throttled snapshot reload
// instead of carrying actions; the caller runs LoadSnapshot off-loop when
// reload is true.
func (o *Orchestrator) HandleEvent(event model.Event) (actions []Action, reload bool) {
	switch event.Channel {
	case model.ChannelNotes:
		switch event.Type {
		case model.EventInsert:
			if event.Note != nil {
				return []Action{NoteAdded{Note: *event.Note}}, false
			}
		case model.EventUpdate:
			if event.Note != nil {
				return []Action{NoteUpdated{Note: *event.Note}}, false
			}
		case model.EventDelete:
			if event.NoteID != "" {
				return []Action{NoteDeleted{ID: event.NoteID}}, false
			}
		}
	case model.ChannelVotes:
		// Reconciled by the toggling actor, never from the feed.
	case model.ChannelParticipants:
		return nil, o.allowReload()
	}
	return nil, false
}

// allowReload is the one backpressure control: participant bursts collapse
// into at most one snapshot refetch per ReloadThrottle.
func (o *Orchestrator) allowReload() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	if now.Sub(o.lastReload) < ReloadThrottle {
		return false
	}
	o.lastReload = now
	return true
}

// LoadSnapshot refetches the authoritative room state and returns the
// wholesale replacement actions.
func (o *Orchestrator) LoadSnapshot(ctx context.Context) []Action {
	snap, err := o.gw.FetchSnapshot(ctx)
	if err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	return []Action{
		SetRoom{Room: snap.Room},
		SetParticipants{Participants: snap.Participants},
		SetAllNotes{Buckets: Partition(snap.Notes)},
	}
}

// guard applies the common gesture precondition: a room, a user, and no
// wholesale load in flight. It returns the actions to dispatch instead of
// proceeding, or nil when the gesture may go ahead.
func guard(st State) []Action {
	if st.Loading {
		// Ignore gestures while loading rather than erroring on them.
		return []Action{}
	}
	if st.Room.ID == "" || st.User.Name == "" {
		return []Action{SetError{Message: "no room access"}}
	}
	return nil
}

// CreateNote asks the backend for a new note and, once the id is assigned,
// optimistically inserts it locally. The feed echo of the same insert is
// absorbed by the reducer's idempotent add. A backend failure surfaces as
// the error field; there is no retry.
func (o *Orchestrator) CreateNote(ctx context.Context, st State, category model.Category, text string) []Action {
	if blocked := guard(st); blocked != nil {
		return blocked
	}
	id, err := o.gw.CreateNote(ctx, category, text)
	if err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	return []Action{NoteAdded{Note: model.Note{
		ID:        id,
		Text:      text,
		Author:    st.User.Name,
		Votes:     0,
		VotedBy:   []string{},
		CreatedAt: time.Now(),
		Category:  category,
	}}}
}

// UpdateNote persists new text for a note and reflects it locally on
// success.
func (o *Orchestrator) UpdateNote(ctx context.Context, st State, noteID, text string) []Action {
	if blocked := guard(st); blocked != nil {
		return blocked
	}
	note, ok := st.Find(noteID)
	if !ok {
		return []Action{}
	}
	if err := o.gw.UpdateNote(ctx, noteID, text); err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	note.Text = text
	return []Action{NoteUpdated{Note: note}}
}

// DeleteNote removes a note remotely, then locally.
func (o *Orchestrator) DeleteNote(ctx context.Context, st State, noteID string) []Action {
	if blocked := guard(st); blocked != nil {
		return blocked
	}
	if err := o.gw.DeleteNote(ctx, noteID); err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	return []Action{NoteDeleted{ID: noteID}}
}

// MoveNote reassigns a note to another column. The local update happens
// only after the backend confirms; moves touch shared ordering, so there
// is no optimistic dispatch ahead of the call.
func (o *Orchestrator) MoveNote(ctx context.Context, st State, noteID string, target model.Category) []Action {
	if blocked := guard(st); blocked != nil {
		return blocked
	}
	note, ok := st.Find(noteID)
	if !ok || note.Category == target {
		return []Action{}
	}
	if err := o.gw.MoveNote(ctx, noteID, target); err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	note.Category = target
	return []Action{NoteUpdated{Note: note}}
}

// ToggleVote flips the current user's vote. Like moves, votes mutate a
// shared counter, so the reducer dispatch waits for the backend's verdict;
// combined with the feed's vote events being discarded this keeps the
// count correct without double-apply races.
func (o *Orchestrator) ToggleVote(ctx context.Context, st State, noteID string) []Action {
	if blocked := guard(st); blocked != nil {
		return blocked
	}
	category, ok := st.CategoryOf(noteID)
	if !ok {
		return []Action{}
	}
	votes, err := o.gw.ToggleVote(ctx, noteID)
	if err != nil {
		return []Action{SetError{Message: err.Error()}}
	}
	if note, ok := st.Find(noteID); ok {
		expected := note.Votes + 1
		if note.HasVoted(st.User.Name) {
			expected = note.Votes - 1
		}
		if votes != expected {
			o.log.WithFields(logrus.Fields{"note": noteID, "server": votes, "local": expected}).
				Debug("vote count drifted, next snapshot will settle it")
		}
	}
	return []Action{VoteToggled{ID: noteID, Category: category, Voter: st.User.Name}}
}
