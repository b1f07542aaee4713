package board

import (
	"github.com/yonagi/retroboard/model"
)

// State is the view model the UI renders from. It is a value: Apply never
// mutates a State in place, every transition produces a new one, so a
// snapshot of it taken by a render is stable.
type State struct {
	Room         model.Room
	User         model.User
	Participants []model.Participant
	// Loading gates gestures while a wholesale load is in flight.
	Loading bool
	// Err is the last surfaced error message, empty when none.
	Err string

	notes map[model.Category][]model.Note
	// index maps note id to the one category bucket holding it. A note is
	// in exactly one bucket at a time; the index makes delete and move a
	// lookup instead of a scan over every bucket.
	index map[string]model.Category
}

// NewState returns an empty view model with all three buckets present.
func NewState() State {
	notes := make(map[model.Category][]model.Note, 3)
	for _, c := range model.Categories() {
		notes[c] = []model.Note{}
	}
	return State{
		Participants: []model.Participant{},
		notes:        notes,
		index:        map[string]model.Category{},
	}
}

// NotesIn returns the ordered notes of one column. The returned slice must
// not be mutated.
func (s State) NotesIn(c model.Category) []model.Note {
	return s.notes[c]
}

// NoteCount is the number of notes across all columns.
func (s State) NoteCount() int {
	return len(s.index)
}

// CategoryOf reports which column currently holds the note with the given
// id, if any.
func (s State) CategoryOf(id string) (model.Category, bool) {
	c, ok := s.index[id]
	return c, ok
}

// Find returns the note with the given id wherever it currently lives.
func (s State) Find(id string) (model.Note, bool) {
	c, ok := s.index[id]
	if !ok {
		return model.Note{}, false
	}
	for _, n := range s.notes[c] {
		if n.ID == id {
			return n, true
		}
	}
	return model.Note{}, false
}

// Action is a state transition request. The set is closed: every mutation
// of the view model is one of the types below going through Apply.
type Action interface {
	isAction()
}

// SetLoading flips the global loading flag and nothing else.
type SetLoading struct{ Loading bool }

// SetError records an error message and drops the loading flag, mirroring
// how a failed load both reports and terminates.
type SetError struct{ Message string }

// ClearError empties the error field.
type ClearError struct{}

// SetRoom wholesale-replaces the current room.
type SetRoom struct{ Room model.Room }

// SetUser wholesale-replaces the current user.
type SetUser struct{ User model.User }

// SetParticipants wholesale-replaces the participant list.
type SetParticipants struct{ Participants []model.Participant }

// SetAllNotes wholesale-replaces every bucket, normally right after a
// snapshot fetch. Use Partition to build the bucket map from a flat list.
type SetAllNotes struct {
	Buckets map[model.Category][]model.Note
}

// NoteAdded inserts a note into its category's bucket. Idempotent: a note
// whose id is already present anywhere is ignored, because the same logical
// creation can arrive twice, once optimistically and once as the feed echo.
type NoteAdded struct{ Note model.Note }

// NoteUpdated replaces the note with a matching id. When the incoming
// note's category differs from where the id currently lives, the note moves
// buckets, which is how a confirmed move (or its feed echo) lands. No-op
// for unknown ids.
type NoteUpdated struct{ Note model.Note }

// NoteDeleted removes the note with the given id from whichever bucket
// holds it. No-op for unknown ids.
type NoteDeleted struct{ ID string }

// VoteToggled flips Voter's membership in the note's voter set and adjusts
// the count by one in the same step, keeping votes == len(votedBy).
type VoteToggled struct {
	ID       string
	Category model.Category
	Voter    string
}

func (SetLoading) isAction()      {}
func (SetError) isAction()        {}
func (ClearError) isAction()      {}
func (SetRoom) isAction()         {}
func (SetUser) isAction()         {}
func (SetParticipants) isAction() {}
func (SetAllNotes) isAction()     {}
func (NoteAdded) isAction()       {}
func (NoteUpdated) isAction()     {}
func (NoteDeleted) isAction()     {}
func (VoteToggled) isAction()     {}

// Partition splits a flat snapshot note list into per-category buckets.
// Notes with an unrecognized category are dropped; the column set is closed.
func Partition(notes []model.Note) map[model.Category][]model.Note {
	buckets := make(map[model.Category][]model.Note, 3)
	for _, c := range model.Categories() {
		buckets[c] = []model.Note{}
	}
	for _, n := range notes {
		if !n.Category.Valid() {
			continue
		}
		buckets[n.Category] = append(buckets[n.Category], n)
	}
	return buckets
}
