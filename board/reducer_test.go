package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonagi/retroboard/board"
	"github.com/yonagi/retroboard/model"
)

func note(id string, c model.Category, text string) model.Note {
	return model.Note{
		ID:       id,
		Text:     text,
		Author:   "alice",
		Votes:    0,
		VotedBy:  []string{},
		Category: c,
	}
}

// checkInvariants asserts the cross-cutting consistency rules: vote count
// equals voter-set size on every note, and every id lives in exactly one
// bucket.
func checkInvariants(t *testing.T, st board.State) {
	t.Helper()
	seen := map[string]model.Category{}
	for _, c := range model.Categories() {
		for _, n := range st.NotesIn(c) {
			assert.Equal(t, len(n.VotedBy), n.Votes, "votes must equal voter set size for %s", n.ID)
			prev, dup := seen[n.ID]
			assert.False(t, dup, "note %s appears in both %s and %s", n.ID, prev, c)
			seen[n.ID] = c
			got, ok := st.CategoryOf(n.ID)
			assert.True(t, ok)
			assert.Equal(t, c, got, "index must point at the holding bucket")
		}
	}
	assert.Equal(t, len(seen), st.NoteCount())
}

func TestNoteAddedIsIdempotent(t *testing.T) {
	st := board.NewState()
	n := note("n1", model.CategoryToImprove, "")

	once := board.Apply(st, board.NoteAdded{Note: n})
	twice := board.Apply(once, board.NoteAdded{Note: n})

	require.Len(t, once.NotesIn(model.CategoryToImprove), 1)
	assert.Equal(t, once.NotesIn(model.CategoryToImprove), twice.NotesIn(model.CategoryToImprove))
	checkInvariants(t, twice)
}

func TestNoteAddedDuplicateIDInOtherBucketIgnored(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	st = board.Apply(st, board.NoteAdded{Note: note("n1", model.CategoryActionItems, "b")})

	assert.Len(t, st.NotesIn(model.CategoryWentWell), 1)
	assert.Empty(t, st.NotesIn(model.CategoryActionItems))
	checkInvariants(t, st)
}

func TestNoteAddedEmptyTextIsANote(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryToImprove, "")})

	notes := st.NotesIn(model.CategoryToImprove)
	require.Len(t, notes, 1)
	assert.Equal(t, "", notes[0].Text)
	assert.Equal(t, 0, notes[0].Votes)
	assert.Empty(t, notes[0].VotedBy)
}

func TestNoteUpdatedReplacesInPlace(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "old")})
	st = board.Apply(st, board.NoteAdded{Note: note("n2", model.CategoryWentWell, "other")})

	updated := note("n1", model.CategoryWentWell, "new")
	st = board.Apply(st, board.NoteUpdated{Note: updated})

	notes := st.NotesIn(model.CategoryWentWell)
	require.Len(t, notes, 2)
	assert.Equal(t, "new", notes[0].Text)
	assert.Equal(t, "other", notes[1].Text)
	checkInvariants(t, st)
}

func TestNoteUpdatedUnknownIDIsNoop(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	before := st

	st = board.Apply(st, board.NoteUpdated{Note: note("ghost", model.CategoryWentWell, "b")})
	assert.Equal(t, before.NotesIn(model.CategoryWentWell), st.NotesIn(model.CategoryWentWell))
}

func TestNoteUpdatedAcrossBucketsMoves(t *testing.T) {
	moved := note("n1", model.CategoryWentWell, "text")
	moved.Votes = 2
	moved.VotedBy = []string{"alice", "bob"}
	st := board.Apply(board.NewState(), board.NoteAdded{Note: moved})

	moved.Category = model.CategoryActionItems
	st = board.Apply(st, board.NoteUpdated{Note: moved})

	assert.Empty(t, st.NotesIn(model.CategoryWentWell))
	dest := st.NotesIn(model.CategoryActionItems)
	require.Len(t, dest, 1)
	assert.Equal(t, "n1", dest[0].ID)
	assert.Equal(t, "text", dest[0].Text)
	assert.Equal(t, "alice", dest[0].Author)
	assert.Equal(t, 2, dest[0].Votes)
	assert.Equal(t, []string{"alice", "bob"}, dest[0].VotedBy)
	checkInvariants(t, st)
}

func TestNoteDeletedRemovesFromHoldingBucket(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryToImprove, "a")})
	st = board.Apply(st, board.NoteDeleted{ID: "n1"})

	assert.Empty(t, st.NotesIn(model.CategoryToImprove))
	_, ok := st.CategoryOf("n1")
	assert.False(t, ok)
}

func TestNoteDeletedUnknownIDIsNoop(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	before := st

	st = board.Apply(st, board.NoteDeleted{ID: "ghost"})

	for _, c := range model.Categories() {
		assert.Equal(t, before.NotesIn(c), st.NotesIn(c))
	}
	assert.Equal(t, before.NoteCount(), st.NoteCount())
}

func TestVoteToggleSymmetry(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	toggle := board.VoteToggled{ID: "n1", Category: model.CategoryWentWell, Voter: "bob"}

	on := board.Apply(st, toggle)
	n, ok := on.Find("n1")
	require.True(t, ok)
	assert.Equal(t, 1, n.Votes)
	assert.Equal(t, []string{"bob"}, n.VotedBy)
	checkInvariants(t, on)

	off := board.Apply(on, toggle)
	n, ok = off.Find("n1")
	require.True(t, ok)
	assert.Equal(t, 0, n.Votes)
	assert.Empty(t, n.VotedBy)
	checkInvariants(t, off)
}

func TestConcurrentVoters(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})

	st = board.Apply(st, board.VoteToggled{ID: "n1", Category: model.CategoryWentWell, Voter: "bob"})
	st = board.Apply(st, board.VoteToggled{ID: "n1", Category: model.CategoryWentWell, Voter: "carol"})

	n, ok := st.Find("n1")
	require.True(t, ok)
	assert.Equal(t, 2, n.Votes)
	assert.Len(t, n.VotedBy, 2)

	st = board.Apply(st, board.VoteToggled{ID: "n1", Category: model.CategoryWentWell, Voter: "bob"})
	n, _ = st.Find("n1")
	assert.Equal(t, 1, n.Votes)
	assert.Equal(t, []string{"carol"}, n.VotedBy)
	checkInvariants(t, st)
}

func TestVoteToggleUnknownNoteIsNoop(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	st = board.Apply(st, board.VoteToggled{ID: "ghost", Category: model.CategoryWentWell, Voter: "bob"})

	n, _ := st.Find("n1")
	assert.Equal(t, 0, n.Votes)
}

func TestSetAllNotesRebuildsIndex(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("stale", model.CategoryWentWell, "a")})

	snapshot := []model.Note{
		note("n1", model.CategoryWentWell, "a"),
		note("n2", model.CategoryToImprove, "b"),
		note("n3", model.CategoryToImprove, "c"),
	}
	st = board.Apply(st, board.SetAllNotes{Buckets: board.Partition(snapshot)})

	assert.Len(t, st.NotesIn(model.CategoryWentWell), 1)
	assert.Len(t, st.NotesIn(model.CategoryToImprove), 2)
	_, ok := st.CategoryOf("stale")
	assert.False(t, ok)
	checkInvariants(t, st)
}

func TestPartitionDropsUnknownCategories(t *testing.T) {
	buckets := board.Partition([]model.Note{
		note("n1", model.CategoryWentWell, "a"),
		{ID: "n2", Category: model.Category("mystery")},
	})
	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	assert.Equal(t, 1, total)
}

func TestStatusActionsTouchOnlyStatusFields(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})

	st = board.Apply(st, board.SetLoading{Loading: true})
	assert.True(t, st.Loading)
	assert.Len(t, st.NotesIn(model.CategoryWentWell), 1)

	st = board.Apply(st, board.SetError{Message: "boom"})
	assert.Equal(t, "boom", st.Err)
	assert.False(t, st.Loading, "an error ends the loading state")

	st = board.Apply(st, board.ClearError{})
	assert.Empty(t, st.Err)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	st := board.Apply(board.NewState(), board.NoteAdded{Note: note("n1", model.CategoryWentWell, "a")})
	before, _ := st.Find("n1")

	_ = board.Apply(st, board.VoteToggled{ID: "n1", Category: model.CategoryWentWell, Voter: "bob"})
	_ = board.Apply(st, board.NoteDeleted{ID: "n1"})

	after, ok := st.Find("n1")
	require.True(t, ok, "original state must still hold the note")
	assert.Equal(t, before, after)
}
