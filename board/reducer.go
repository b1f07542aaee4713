package board

import (
	"github.com/yonagi/retroboard/model"
)

// Apply is the reducer: a pure transition from one view model to the next.
// Updates or deletes naming an id that is not present locally are absorbed
// as no-ops; the next authoritative snapshot corrects whatever they
// referred to.
func Apply(s State, a Action) State {
	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading
		return s

	case SetError:
		s.Err = a.Message
		s.Loading = false
		return s

	case ClearError:
		s.Err = ""
		return s

	case SetRoom:
		s.Room = a.Room
		return s

	case SetUser:
		s.User = a.User
		return s

	case SetParticipants:
		s.Participants = a.Participants
		return s

	case SetAllNotes:
		return replaceAll(s, a.Buckets)

	case NoteAdded:
		return addNote(s, a.Note)

	case NoteUpdated:
		return updateNote(s, a.Note)

	case NoteDeleted:
		return deleteNote(s, a.ID)

	case VoteToggled:
		return toggleVote(s, a)
	}
	return s
}

func replaceAll(s State, buckets map[model.Category][]model.Note) State {
	notes := make(map[model.Category][]model.Note, 3)
	index := make(map[string]model.Category)
	for _, c := range model.Categories() {
		bucket := buckets[c]
		if bucket == nil {
			bucket = []model.Note{}
		}
		notes[c] = bucket
		for _, n := range bucket {
			index[n.ID] = c
		}
	}
	s.notes = notes
	s.index = index
	return s
}

func addNote(s State, n model.Note) State {
	if !n.Category.Valid() {
		return s
	}
	if _, exists := s.index[n.ID]; exists {
		// Duplicate arrival of the same logical insert.
		return s
	}
	s.notes = cloneBuckets(s.notes)
	s.notes[n.Category] = append(append([]model.Note{}, s.notes[n.Category]...), n)
	s.index = cloneIndex(s.index)
	s.index[n.ID] = n.Category
	return s
}

func updateNote(s State, n model.Note) State {
	current, ok := s.index[n.ID]
	if !ok || !n.Category.Valid() {
		return s
	}

	s.notes = cloneBuckets(s.notes)
	if current == n.Category {
		bucket := make([]model.Note, len(s.notes[current]))
		for i, existing := range s.notes[current] {
			if existing.ID == n.ID {
				bucket[i] = n
			} else {
				bucket[i] = existing
			}
		}
		s.notes[current] = bucket
		return s
	}

	// The id changed buckets: a move. Drop it from the old column, append
	// to the new one, keep the index pointing at exactly one bucket.
	s.notes[current] = withoutID(s.notes[current], n.ID)
	s.notes[n.Category] = append(append([]model.Note{}, s.notes[n.Category]...), n)
	s.index = cloneIndex(s.index)
	s.index[n.ID] = n.Category
	return s
}

func deleteNote(s State, id string) State {
	current, ok := s.index[id]
	if !ok {
		return s
	}
	s.notes = cloneBuckets(s.notes)
	s.notes[current] = withoutID(s.notes[current], id)
	s.index = cloneIndex(s.index)
	delete(s.index, id)
	return s
}

func toggleVote(s State, a VoteToggled) State {
	bucket, ok := s.notes[a.Category]
	if !ok {
		return s
	}
	replaced := false
	next := make([]model.Note, len(bucket))
	for i, n := range bucket {
		if n.ID != a.ID {
			next[i] = n
			continue
		}
		if n.HasVoted(a.Voter) {
			votedBy := make([]string, 0, len(n.VotedBy)-1)
			for _, v := range n.VotedBy {
				if v != a.Voter {
					votedBy = append(votedBy, v)
				}
			}
			n.VotedBy = votedBy
			n.Votes--
		} else {
			n.VotedBy = append(append([]string{}, n.VotedBy...), a.Voter)
			n.Votes++
		}
		next[i] = n
		replaced = true
	}
	if !replaced {
		return s
	}
	s.notes = cloneBuckets(s.notes)
	s.notes[a.Category] = next
	return s
}

func cloneBuckets(m map[model.Category][]model.Note) map[model.Category][]model.Note {
	out := make(map[model.Category][]model.Note, len(m))
	for c, bucket := range m {
		out[c] = bucket
	}
	return out
}

func cloneIndex(m map[string]model.Category) map[string]model.Category {
	out := make(map[string]model.Category, len(m))
	for id, c := range m {
		out[id] = c
	}
	return out
}

func withoutID(bucket []model.Note, id string) []model.Note {
	out := make([]model.Note, 0, len(bucket))
	for _, n := range bucket {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}
