package report

import (
	"fmt"
	"io"
	"strings"

	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/internal/stats"
)

// PrintGroups lists groups with their 0-based selection index
func PrintGroups(w io.Writer, groups []state.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "You are not part of any groups.")
		return
	}
	for i, g := range groups {
		fmt.Fprintf(w, "%d. %s\n", i, g.Name)
	}
}

// PrintSummary writes one line per member. With detail set, each line is
// followed by who the member's likes came from and how often they liked
// the same messages as everyone else.
func PrintSummary(w io.Writer, s *stats.Stats, detail bool) {
	for _, m := range s.Members() {
		fmt.Fprintln(w, SummaryLine(m))
		if !detail {
			continue
		}
		fmt.Fprintf(w, "Portion of total likes received by member: %s\n",
			rates(s, m.LikesByMember, func(id string) float64 { return stats.LikeShare(m, id) }))
		fmt.Fprintf(w, "Like sharing rates: %s\n\n",
			rates(s, m.SharedLikes, func(id string) float64 { return stats.SharedLikeRate(m, id) }))
	}
}

// SummaryLine formats a member's counters on a single line
func SummaryLine(m *state.MemberStats) string {
	return fmt.Sprintf("%s | Messages sent: %d, Likes given: %d, Self-likes: %d, Likes received: %d, Avg. Likes per message: %.2f, Words sent: %d",
		m.Name, m.MessagesSent, m.LikesGiven, m.SelfLikes, m.LikesReceived, stats.LikesPerMessage(m), m.WordsSent)
}

// rates renders "name: pct%" pairs for the ids in counts, in member order
func rates(s *stats.Stats, counts map[string]int, rate func(id string) float64) string {
	parts := make([]string, 0, len(counts))
	for _, other := range s.Members() {
		if _, ok := counts[other.ID]; !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %.1f%%", s.Name(other.ID), rate(other.ID)*100))
	}
	return strings.Join(parts, ", ")
}

// Progress prints "\rNN.NN% done" after every page
type Progress struct {
	w io.Writer
}

// NewProgress creates a progress printer writing to w
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// Update matches paginator.ProgressFunc
func (p *Progress) Update(fetched, total int) {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(fetched) / float64(total)
	}
	fmt.Fprintf(p.w, "\r%.2f%% done", pct)
}

// Done ends the progress line
func (p *Progress) Done() {
	fmt.Fprintln(p.w)
}
