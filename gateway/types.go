package gateway

import (
	"time"

	"github.com/yonagi/retroboard/model"
)

// envelope is the common prefix of every RPC response. Failures are values
// in the response body; only transport faults surface outside it.
type envelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

type createRoomRequest struct {
	RoomName     string `json:"room_name"`
	RoomPassword string `json:"room_password"`
	CreatorName  string `json:"creator_name"`
}

type joinRoomRequest struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
	UserName     string `json:"user_name"`
}

type roomResponse struct {
	envelope
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	SessionToken string `json:"session_token"`
}

type snapshotRequest struct {
	SessionToken string `json:"session_token"`
}

type snapshotResponse struct {
	envelope
	Room         model.Room          `json:"room"`
	Participants []model.Participant `json:"participants"`
	StickyNotes  []noteRecord        `json:"sticky_notes"`
}

// noteRecord is the backend's note row as it appears on the wire.
type noteRecord struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	Votes      int       `json:"votes"`
	VotedBy    []string  `json:"voted_by"`
	CreatedAt  time.Time `json:"created_at"`
	ColumnType string    `json:"column_type"`
}

// toNote maps a backend record onto the client note shape. Absent authors
// become "Unknown" and an absent voter list becomes the empty set; empty
// text stays empty text.
func (r noteRecord) toNote() model.Note {
	author := r.AuthorName
	if author == "" {
		author = "Unknown"
	}
	votedBy := r.VotedBy
	if votedBy == nil {
		votedBy = []string{}
	}
	return model.Note{
		ID:        r.ID,
		Text:      r.Text,
		Author:    author,
		Votes:     r.Votes,
		VotedBy:   votedBy,
		CreatedAt: r.CreatedAt,
		Category:  model.Category(r.ColumnType),
	}
}

type addNoteRequest struct {
	SessionToken string `json:"session_token"`
	NoteText     string `json:"note_text"`
	ColumnType   string `json:"column_type"`
}

type addNoteResponse struct {
	envelope
	NoteID string `json:"note_id"`
}

type updateNoteRequest struct {
	SessionToken string `json:"session_token"`
	NoteID       string `json:"note_id"`
	NewText      string `json:"new_text"`
}

type deleteNoteRequest struct {
	SessionToken string `json:"session_token"`
	NoteID       string `json:"note_id"`
}

type moveNoteRequest struct {
	SessionToken  string `json:"session_token"`
	NoteID        string `json:"note_id"`
	NewColumnType string `json:"new_column_type"`
}

type toggleVoteRequest struct {
	SessionToken string `json:"session_token"`
	NoteID       string `json:"note_id"`
}

type toggleVoteResponse struct {
	envelope
	Votes int `json:"votes"`
}
