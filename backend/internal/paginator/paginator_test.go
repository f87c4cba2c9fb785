package paginator

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a history of n messages with ids n..1, newest first
type fakeSource struct {
	history []state.Message
	calls   []string // beforeID of each call
	limits  []int
	failAt  int // 1-based call number that fails, 0 for never
}

func newFakeSource(n int) *fakeSource {
	s := &fakeSource{}
	for id := n; id >= 1; id-- {
		s.history = append(s.history, state.Message{ID: strconv.Itoa(id), SenderID: "u"})
	}
	return s
}

func (s *fakeSource) MessagePage(ctx context.Context, groupID, beforeID string, limit int) ([]state.Message, error) {
	s.calls = append(s.calls, beforeID)
	s.limits = append(s.limits, limit)
	if s.failAt == len(s.calls) {
		return nil, errors.New("connection reset")
	}

	start := 0
	if beforeID != "" {
		before, _ := strconv.Atoi(beforeID)
		for start < len(s.history) {
			id, _ := strconv.Atoi(s.history[start].ID)
			if id < before {
				break
			}
			start++
		}
	}
	end := min(start+limit, len(s.history))
	return s.history[start:end], nil
}

func collect(t *testing.T, p *Paginator, total int) ([]state.Message, error) {
	t.Helper()
	var out []state.Message
	for msg, err := range p.Messages(context.Background(), "g1", total) {
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func TestMessages_ChainsBeforeCursor(t *testing.T) {
	src := newFakeSource(250)
	p := New(src)

	msgs, err := collect(t, p, 250)
	require.NoError(t, err)

	assert.Len(t, msgs, 250)
	assert.Equal(t, []string{"", "151", "51"}, src.calls)
	assert.Equal(t, []int{100, 100, 100}, src.limits)

	prev := 1 << 30
	for _, m := range msgs {
		id, _ := strconv.Atoi(m.ID)
		assert.Less(t, id, prev, "ids must be strictly decreasing")
		prev = id
	}
}

func TestMessages_FinalPageOvershoots(t *testing.T) {
	src := newFakeSource(500)
	p := New(src)

	msgs, err := collect(t, p, 150)
	require.NoError(t, err)

	assert.Len(t, msgs, 200, "the last page is consumed in full")
	assert.GreaterOrEqual(t, len(msgs), 150)
	assert.Len(t, src.calls, 2)
}

func TestMessages_ReportsProgressPerPage(t *testing.T) {
	src := newFakeSource(120)
	var progress [][2]int
	p := New(src, WithPageSize(50), WithProgress(func(fetched, total int) {
		progress = append(progress, [2]int{fetched, total})
	}))

	_, err := collect(t, p, 120)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{50, 120}, {100, 120}, {120, 120}}, progress)
}

func TestMessages_StopsWhenHistoryRunsOut(t *testing.T) {
	src := newFakeSource(30)
	p := New(src)

	msgs, err := collect(t, p, 1000)
	require.NoError(t, err)
	assert.Len(t, msgs, 30)
	assert.Equal(t, []string{"", "1"}, src.calls)
}

func TestMessages_ZeroTotalMakesNoRequests(t *testing.T) {
	src := newFakeSource(10)
	msgs, err := collect(t, New(src), 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, src.calls)
}

func TestMessages_PropagatesTransportError(t *testing.T) {
	src := newFakeSource(300)
	src.failAt = 2
	p := New(src)

	msgs, err := collect(t, p, 300)
	require.Error(t, err)
	assert.Len(t, msgs, 100, "records from earlier pages were already yielded")
	assert.True(t, apperrors.IsTransport(err))
	assert.Len(t, src.calls, 2, "no retry")
}

func TestMessages_EarlyBreakStopsFetching(t *testing.T) {
	src := newFakeSource(300)
	p := New(src)

	n := 0
	for _, err := range p.Messages(context.Background(), "g1", 300) {
		require.NoError(t, err)
		n++
		if n == 10 {
			break
		}
	}
	assert.Len(t, src.calls, 1)
}

func TestMessages_CancelledContext(t *testing.T) {
	src := newFakeSource(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range New(src).Messages(ctx, "g1", 10) {
		gotErr = err
	}
	assert.True(t, apperrors.IsErrorType(gotErr, apperrors.ErrorTypeContext))
	assert.Empty(t, src.calls)
}

func TestWithPageSize_Clamps(t *testing.T) {
	assert.Equal(t, 100, New(nil, WithPageSize(500)).pageSize)
	assert.Equal(t, 100, New(nil, WithPageSize(0)).pageSize)
	assert.Equal(t, 20, New(nil, WithPageSize(20)).pageSize)
}
