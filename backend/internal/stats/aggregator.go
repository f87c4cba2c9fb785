package stats

import (
	"errors"
	"iter"
	"strings"

	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"
)

// wordSeparators are folded into spaces before counting words
var wordSeparators = strings.NewReplacer("-", " ", ".", " ", ",", " ", "\n", " ")

// Aggregator folds a message stream into per-member statistics.
// It is not safe for concurrent use; one Aggregator owns one pass.
type Aggregator struct {
	stats *Stats
}

// NewAggregator seeds the statistics with the group's current roster
func NewAggregator(roster []state.Member) *Aggregator {
	s := newStats(len(roster))
	for _, member := range roster {
		s.ensure(member.UserID, member.Name)
	}
	return &Aggregator{stats: s}
}

// Add applies a single message to the statistics
func (a *Aggregator) Add(msg state.Message) error {
	if err := msg.Validate(); err != nil {
		var invalid state.ErrInvalidMessage
		if errors.As(err, &invalid) {
			return apperrors.NewMalformedRecord(invalid.MessageID, invalid.Reason)
		}
		return err
	}

	sender := a.stats.ensure(msg.SenderID, msg.Name)
	// Members first seen as likers have no name yet
	if sender.Name == "" {
		sender.Name = msg.Name
	}

	words := CountWords(msg.Text)
	likers := msg.FavoritedBy

	for _, likerID := range likers {
		sender.LikesByMember[likerID]++
	}

	for _, likerID := range likers {
		liker := a.stats.ensure(likerID, "")
		if likerID == msg.SenderID {
			sender.SelfLikes++
			continue
		}
		// inner includes likerID itself, so every liker also co-likes with themselves
		for _, inner := range likers {
			liker.SharedLikes[inner]++
		}
		liker.LikesGiven++
	}

	sender.MessagesSent++
	sender.LikesReceived += len(likers)
	sender.WordsSent += words
	a.stats.total++
	return nil
}

// Consume drains seq into the statistics, stopping at the first error
func (a *Aggregator) Consume(seq iter.Seq2[state.Message, error]) error {
	for msg, err := range seq {
		if err != nil {
			return err
		}
		if err := a.Add(msg); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the accumulated statistics. Callers must not Add after reading.
func (a *Aggregator) Stats() *Stats {
	return a.stats
}

// Aggregate runs a full pass over seq seeded with roster
func Aggregate(seq iter.Seq2[state.Message, error], roster []state.Member) (*Stats, error) {
	agg := NewAggregator(roster)
	if err := agg.Consume(seq); err != nil {
		return nil, err
	}
	return agg.Stats(), nil
}

// CountWords counts whitespace separated tokens after treating - . , and newline as spaces
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(wordSeparators.Replace(text)))
}
