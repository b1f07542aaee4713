package model

import "time"

// Category identifies one of the three fixed board columns.
type Category string

const (
	CategoryWentWell    Category = "went-well"
	CategoryToImprove   Category = "to-improve"
	CategoryActionItems Category = "action-items"
)

// Categories returns the columns in display order. The reducer also relies
// on this order when it has to scan buckets deterministically.
func Categories() []Category {
	return []Category{CategoryWentWell, CategoryToImprove, CategoryActionItems}
}

// Valid reports whether c is one of the three known columns.
func (c Category) Valid() bool {
	switch c {
	case CategoryWentWell, CategoryToImprove, CategoryActionItems:
		return true
	}
	return false
}

// Room is a retrospective board. Immutable once created.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the local participant. Name is free text and doubles as the
// identity key for vote membership; IsAdmin is true only for the creator.
type User struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// Participant is an entry in the room's participant list.
type Participant struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Note is a sticky note. An empty Text is a legitimate persisted value.
// Invariant: Votes == len(VotedBy) at all times.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author_name"`
	Votes     int       `json:"votes"`
	VotedBy   []string  `json:"voted_by"`
	CreatedAt time.Time `json:"created_at"`
	Category  Category  `json:"column_type"`
}

// HasVoted reports whether name is in the note's voter set.
func (n Note) HasVoted(name string) bool {
	for _, v := range n.VotedBy {
		if v == name {
			return true
		}
	}
	return false
}

// Snapshot is the authoritative full room state as returned by the backend.
// It is the resynchronization primitive: whenever local state cannot be
// trusted the client refetches one of these wholesale.
type Snapshot struct {
	Room         Room
	Participants []Participant
	Notes        []Note
}

// EventType tags a change-feed event.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventChange EventType = "change"
)

// EventChannel names the backend stream a change-feed event originated from.
type EventChannel string

const (
	ChannelNotes        EventChannel = "notes"
	ChannelVotes        EventChannel = "votes"
	ChannelParticipants EventChannel = "participants"
)

// Event is the wrapper for change-feed messages. Note is set for note
// inserts and updates; NoteID alone is set for deletes. Vote and
// participant events are coarse and carry no payload detail the client
// may rely on.
type Event struct {
	Channel EventChannel `json:"channel"`
	Type    EventType    `json:"type"`
	Note    *Note        `json:"note,omitempty"`
	NoteID  string       `json:"note_id,omitempty"`
}
