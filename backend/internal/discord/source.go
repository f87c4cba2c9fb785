package discord

import (
	"context"
	"errors"
	"fmt"

	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	reactionPageSize = 100
	memberPageSize   = 1000
)

// session is the subset of *discordgo.Session the source needs
type session interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
}

// Source reads a guild's text channels as groups. Every distinct user who
// reacted to a message, with any emoji, counts as having liked it.
type Source struct {
	session      session
	guildID      string
	messageLimit int
	logger       *zap.Logger
}

// NewSource creates a source for guildID. Discord does not report channel
// message counts, so messageLimit stands in for a group's total.
func NewSource(s *discordgo.Session, guildID string, messageLimit int, logger *zap.Logger) *Source {
	return newSource(s, guildID, messageLimit, logger)
}

func newSource(s session, guildID string, messageLimit int, logger *zap.Logger) *Source {
	return &Source{
		session:      s,
		guildID:      guildID,
		messageLimit: messageLimit,
		logger:       logger,
	}
}

// Groups lists the guild's text channels with the guild roster as members
func (s *Source) Groups(ctx context.Context) ([]state.Group, error) {
	channels, err := s.session.GuildChannels(s.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, transportError("list channels", err)
	}

	members, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	var groups []state.Group
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			s.logger.Debug("Skipping non-text channel",
				zap.String("channel_id", ch.ID),
				zap.String("channel_name", ch.Name),
				zap.Int("channel_type", int(ch.Type)),
			)
			continue
		}
		groups = append(groups, state.Group{
			ID:           ch.ID,
			Name:         ch.Name,
			Members:      members,
			MessageCount: s.messageLimit,
		})
	}

	s.logger.Info("Listed guild channels",
		zap.String("guild_id", s.guildID),
		zap.Int("text_channels", len(groups)),
		zap.Int("members", len(members)),
	)
	return groups, nil
}

func (s *Source) roster(ctx context.Context) ([]state.Member, error) {
	var out []state.Member
	after := ""
	for {
		batch, err := s.session.GuildMembers(s.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, transportError("list members", err)
		}
		last := ""
		for _, m := range batch {
			if m == nil || m.User == nil {
				continue
			}
			out = append(out, state.Member{UserID: m.User.ID, Name: memberName(m)})
			last = m.User.ID
		}
		// A full page with no usable member gives no cursor to continue from
		if len(batch) < memberPageSize || last == "" {
			return out, nil
		}
		after = last
	}
}

// MessagePage returns one page of channel messages older than beforeID, newest first
func (s *Source) MessagePage(ctx context.Context, channelID, beforeID string, limit int) ([]state.Message, error) {
	batch, err := s.session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, transportError("message page", err)
	}

	out := make([]state.Message, 0, len(batch))
	for _, m := range batch {
		likers, err := s.reactors(ctx, channelID, m)
		if err != nil {
			return nil, err
		}
		out = append(out, toMessage(m, likers))
	}
	return out, nil
}

// reactors returns the distinct users who reacted to m, in first-seen order
func (s *Source) reactors(ctx context.Context, channelID string, m *discordgo.Message) ([]string, error) {
	if len(m.Reactions) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		after := ""
		for {
			users, err := s.session.MessageReactions(channelID, m.ID, r.Emoji.APIName(), reactionPageSize, "", after, discordgo.WithContext(ctx))
			if err != nil {
				return nil, transportError("message reactions", err)
			}
			for _, u := range users {
				if _, dup := seen[u.ID]; dup {
					continue
				}
				seen[u.ID] = struct{}{}
				out = append(out, u.ID)
			}
			if len(users) < reactionPageSize {
				break
			}
			after = users[len(users)-1].ID
		}
	}
	return out, nil
}

func toMessage(m *discordgo.Message, likers []string) state.Message {
	msg := state.Message{
		ID:          m.ID,
		Text:        m.Content,
		FavoritedBy: likers,
	}
	if m.Author != nil {
		msg.SenderID = m.Author.ID
		msg.Name = userName(m.Author)
	}
	if m.Member != nil && m.Member.Nick != "" {
		msg.Name = m.Member.Nick
	}
	return msg
}

// memberName prefers the guild nickname, then the global display name, then the username
func memberName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	return userName(m.User)
}

func userName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func transportError(operation string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return apperrors.NewTransportFailed(operation, restErr.Response.StatusCode, err)
	}
	return apperrors.NewTransportFailed(operation, 0, fmt.Errorf("discord: %w", err))
}
