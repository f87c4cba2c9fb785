package analysis

import (
	"context"
	"fmt"

	"groupme-analyzer/backend/internal/paginator"
	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/internal/stats"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"go.uber.org/zap"
)

// Source is a messaging service that can list groups and page through their history
type Source interface {
	paginator.PageSource
	Groups(ctx context.Context) ([]state.Group, error)
}

// Service runs analyses against a single source
type Service struct {
	source   Source
	pageSize int
	logger   *zap.Logger
}

// NewService creates an analysis service
func NewService(source Source, pageSize int, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Groups lists the groups available to analyze
func (s *Service) Groups(ctx context.Context) ([]state.Group, error) {
	groups, err := s.source.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// FindGroup looks a group up by id
func (s *Service) FindGroup(ctx context.Context, groupID string) (*state.Group, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == groupID {
			return &groups[i], nil
		}
	}
	return nil, apperrors.NewInvalidInput(groupID, "no such group")
}

// Analyze pulls the group's full history and aggregates it.
// onProgress may be nil. The returned Stats must be treated as read-only.
func (s *Service) Analyze(ctx context.Context, group state.Group, onProgress paginator.ProgressFunc) (*stats.Stats, error) {
	s.logger.Info("Analyzing group",
		zap.String("group_id", group.ID),
		zap.String("group_name", group.Name),
		zap.Int("message_count", group.MessageCount),
		zap.Int("roster_size", len(group.Members)),
	)

	p := paginator.New(s.source,
		paginator.WithPageSize(s.pageSize),
		paginator.WithProgress(onProgress),
		paginator.WithLogger(s.logger),
	)

	result, err := stats.Aggregate(p.Messages(ctx, group.ID, group.MessageCount), group.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze group %s: %w", group.ID, err)
	}

	s.logger.Info("Analysis complete",
		zap.String("group_id", group.ID),
		zap.Int("messages_processed", result.MessagesProcessed()),
		zap.Int("members", result.Len()),
	)
	return result, nil
}
