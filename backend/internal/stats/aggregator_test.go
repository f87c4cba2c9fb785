package stats

import (
	"errors"
	"iter"
	"testing"

	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(msgs ...state.Message) iter.Seq2[state.Message, error] {
	return func(yield func(state.Message, error) bool) {
		for _, m := range msgs {
			if !yield(m, nil) {
				return
			}
		}
	}
}

func roster(names ...string) []state.Member {
	out := make([]state.Member, 0, len(names))
	for _, n := range names {
		out = append(out, state.Member{UserID: n, Name: "Name " + n})
	}
	return out
}

func TestAggregate_ThreeMemberScenario(t *testing.T) {
	msgs := []state.Message{
		{ID: "2", SenderID: "A", Name: "Name A", Text: "hello there", FavoritedBy: []string{"B", "C"}},
		{ID: "1", SenderID: "B", Name: "Name B", Text: "hi", FavoritedBy: []string{"A"}},
	}

	s, err := Aggregate(seqOf(msgs...), roster("A", "B", "C"))
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	want := map[string]struct{ sent, received, given, self int }{
		"A": {1, 2, 1, 0},
		"B": {1, 1, 1, 0},
		"C": {0, 0, 1, 0},
	}
	for id, w := range want {
		m, ok := s.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, w.sent, m.MessagesSent, "messages_sent[%s]", id)
		assert.Equal(t, w.received, m.LikesReceived, "likes_received[%s]", id)
		assert.Equal(t, w.given, m.LikesGiven, "likes_given[%s]", id)
		assert.Equal(t, w.self, m.SelfLikes, "self_likes[%s]", id)
	}

	a, _ := s.Get("A")
	assert.Equal(t, map[string]int{"B": 1, "C": 1}, a.LikesByMember)
	assert.Equal(t, 2, a.WordsSent)
}

func TestAggregate_Invariants(t *testing.T) {
	msgs := []state.Message{
		{ID: "9", SenderID: "A", Name: "Ann", Text: "one", FavoritedBy: []string{"A", "B"}},
		{ID: "8", SenderID: "B", Name: "Bob", Text: "", FavoritedBy: nil},
		{ID: "7", SenderID: "A", Name: "Ann", Text: "two words", FavoritedBy: []string{"C", "D", "B"}},
		{ID: "6", SenderID: "E", Name: "Eve", Text: "x", FavoritedBy: []string{"E"}},
		{ID: "5", SenderID: "A", Name: "Ann", Text: "x", FavoritedBy: []string{"A"}},
	}

	s, err := Aggregate(seqOf(msgs...), nil)
	require.NoError(t, err)

	total := 0
	for _, m := range s.Members() {
		total += m.MessagesSent
	}
	assert.Equal(t, len(msgs), total)
	assert.Equal(t, len(msgs), s.MessagesProcessed())

	received := map[string]int{}
	self := map[string]int{}
	for _, msg := range msgs {
		received[msg.SenderID] += len(msg.FavoritedBy)
		for _, l := range msg.FavoritedBy {
			if l == msg.SenderID {
				self[msg.SenderID]++
			}
		}
	}
	for _, m := range s.Members() {
		assert.Equal(t, received[m.ID], m.LikesReceived, "likes_received[%s]", m.ID)
		assert.Equal(t, self[m.ID], m.SelfLikes, "self_likes[%s]", m.ID)
	}

	a, _ := s.Get("A")
	assert.Equal(t, 2, a.SelfLikes)
	assert.Zero(t, a.LikesGiven, "self likes are not counted as likes given")
	assert.Equal(t, 2, a.LikesByMember["A"])
}

func TestAggregate_UnionOfRosterAndObserved(t *testing.T) {
	msgs := []state.Message{
		{ID: "3", SenderID: "X", Name: "Xavier", FavoritedBy: []string{"Y"}},
	}

	s, err := Aggregate(seqOf(msgs...), roster("A", "B"))
	require.NoError(t, err)

	ids := []string{}
	for _, m := range s.Members() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"A", "B", "X", "Y"}, ids)
}

func TestAggregate_NameBackfill(t *testing.T) {
	agg := NewAggregator(nil)

	require.NoError(t, agg.Add(state.Message{ID: "3", SenderID: "A", Name: "Ann", FavoritedBy: []string{"L"}}))
	liker, ok := agg.Stats().Get("L")
	require.True(t, ok)
	assert.Empty(t, liker.Name, "liker has no name until seen as a sender")
	assert.Equal(t, "L", agg.Stats().Name("L"))

	require.NoError(t, agg.Add(state.Message{ID: "2", SenderID: "L", Name: "Lou"}))
	assert.Equal(t, "Lou", liker.Name)

	require.NoError(t, agg.Add(state.Message{ID: "1", SenderID: "L", Name: "Lou Renamed"}))
	assert.Equal(t, "Lou", liker.Name, "existing names are not overwritten")
}

func TestAggregate_SharedLikesCountsLikerAgainstThemselves(t *testing.T) {
	s, err := Aggregate(seqOf(
		state.Message{ID: "1", SenderID: "A", Name: "Ann", FavoritedBy: []string{"B", "C", "A"}},
	), nil)
	require.NoError(t, err)

	b, _ := s.Get("B")
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, b.SharedLikes)
	assert.Equal(t, 1, b.LikesGiven)

	a, _ := s.Get("A")
	assert.Empty(t, a.SharedLikes, "sender liking their own message skips shared likes")
	assert.Equal(t, 1, a.SelfLikes)
	assert.Equal(t, 3, a.LikesReceived)
}

func TestAggregate_MissingSenderFailsPass(t *testing.T) {
	_, err := Aggregate(seqOf(
		state.Message{ID: "2", SenderID: "A", Name: "Ann"},
		state.Message{ID: "1", Name: "ghost"},
	), nil)
	require.Error(t, err)

	var malformed *apperrors.ErrMalformedRecord
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "1", malformed.MessageID)
}

func TestAggregate_StopsOnSequenceError(t *testing.T) {
	boom := apperrors.NewTransportFailed("message page", 500, nil)
	seq := func(yield func(state.Message, error) bool) {
		if !yield(state.Message{ID: "2", SenderID: "A"}, nil) {
			return
		}
		yield(state.Message{}, boom)
	}

	_, err := Aggregate(seq, nil)
	assert.ErrorIs(t, err, boom)
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello world", 2},
		{"well-known fact.", 3},
		{"a,b,c", 3},
		{"line one\nline two", 4},
		{"  spaced   out  ", 2},
		{"...---,,,", 0},
		{"tab\tseparated", 2},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.text))
		})
	}
}

func TestRatios_ZeroDenominator(t *testing.T) {
	m := state.NewMemberStats("C", "Cat")
	assert.Zero(t, LikesPerMessage(m))
	assert.Zero(t, LikeShare(m, "A"))
	assert.Zero(t, SharedLikeRate(m, "A"))

	m.MessagesSent = 4
	m.LikesReceived = 2
	m.LikesByMember["A"] = 1
	m.LikesGiven = 5
	m.SharedLikes["B"] = 2
	assert.InDelta(t, 0.5, LikesPerMessage(m), 1e-9)
	assert.InDelta(t, 0.5, LikeShare(m, "A"), 1e-9)
	assert.InDelta(t, 0.4, SharedLikeRate(m, "B"), 1e-9)
}
