package stats

import (
	"groupme-analyzer/backend/internal/state"
)

// Stats is the identity -> MemberStats mapping built by an Aggregator.
// Members keep the order in which they were first seen: roster first, then
// senders and likers in stream order.
type Stats struct {
	members map[string]*state.MemberStats
	order   []string
	total   int
}

func newStats(capacity int) *Stats {
	return &Stats{
		members: make(map[string]*state.MemberStats, capacity),
		order:   make([]string, 0, capacity),
	}
}

// ensure returns the entry for id, creating it with name when absent.
func (s *Stats) ensure(id, name string) *state.MemberStats {
	if m, ok := s.members[id]; ok {
		return m
	}
	m := state.NewMemberStats(id, name)
	s.members[id] = m
	s.order = append(s.order, id)
	return m
}

// Get returns the stats for a member identity
func (s *Stats) Get(id string) (*state.MemberStats, bool) {
	m, ok := s.members[id]
	return m, ok
}

// Name returns the display name for id, or id itself when no name is known.
func (s *Stats) Name(id string) string {
	if m, ok := s.members[id]; ok && m.Name != "" {
		return m.Name
	}
	return id
}

// Len returns the number of distinct member identities
func (s *Stats) Len() int {
	return len(s.members)
}

// MessagesProcessed returns how many message records were aggregated
func (s *Stats) MessagesProcessed() int {
	return s.total
}

// Members returns all member stats in first-seen order
func (s *Stats) Members() []*state.MemberStats {
	out := make([]*state.MemberStats, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// LikesPerMessage is the average number of likes per authored message, 0 when none were sent.
func LikesPerMessage(m *state.MemberStats) float64 {
	return ratio(m.LikesReceived, m.MessagesSent)
}

// LikeShare is the fraction of m's received likes that came from liker.
func LikeShare(m *state.MemberStats, liker string) float64 {
	return ratio(m.LikesByMember[liker], m.LikesReceived)
}

// SharedLikeRate is the fraction of the likes m gave that other also gave to the same message.
func SharedLikeRate(m *state.MemberStats, other string) float64 {
	return ratio(m.SharedLikes[other], m.LikesGiven)
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
