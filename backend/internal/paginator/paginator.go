package paginator

import (
	"context"
	"errors"
	"iter"

	"groupme-analyzer/backend/internal/constants"
	"groupme-analyzer/backend/internal/state"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"go.uber.org/zap"
)

// PageSource returns one page of messages older than beforeID, newest first.
// An empty beforeID asks for the newest page.
type PageSource interface {
	MessagePage(ctx context.Context, groupID, beforeID string, limit int) ([]state.Message, error)
}

// ProgressFunc receives the number of records yielded so far and the requested total
type ProgressFunc func(fetched, total int)

// Paginator walks a group's history backwards one page at a time
type Paginator struct {
	source     PageSource
	pageSize   int
	onProgress ProgressFunc
	logger     *zap.Logger
}

// Option configures a Paginator
type Option func(*Paginator)

// WithPageSize sets the page size. Values above MaxPageSize are capped and
// non-positive values keep the default.
func WithPageSize(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.pageSize = min(n, constants.MaxPageSize)
		}
	}
}

// WithProgress registers a callback invoked after every page
func WithProgress(fn ProgressFunc) Option {
	return func(p *Paginator) {
		p.onProgress = fn
	}
}

// WithLogger sets the logger used for page diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(p *Paginator) {
		p.logger = logger
	}
}

// New creates a paginator over source
func New(source PageSource, opts ...Option) *Paginator {
	p := &Paginator{
		source:   source,
		pageSize: constants.MaxPageSize,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Messages lazily yields at least total records of groupID, newest first.
// The last page is not truncated, so up to pageSize-1 extra records may follow
// the requested total. The sequence also ends early if the source runs dry.
// A failed page request is yielded once as a transport error and ends the sequence.
func (p *Paginator) Messages(ctx context.Context, groupID string, total int) iter.Seq2[state.Message, error] {
	return func(yield func(state.Message, error) bool) {
		fetched := 0
		beforeID := ""

		for fetched < total {
			select {
			case <-ctx.Done():
				yield(state.Message{}, apperrors.NewContextCancelled("fetch messages", ctx.Err()))
				return
			default:
			}

			page, err := p.source.MessagePage(ctx, groupID, beforeID, p.pageSize)
			if err != nil {
				yield(state.Message{}, asTransportError(err))
				return
			}

			if len(page) == 0 {
				p.logger.Debug("Message history exhausted before requested total",
					zap.String("group_id", groupID),
					zap.Int("fetched", fetched),
					zap.Int("total", total),
				)
				return
			}

			for _, msg := range page {
				fetched++
				if !yield(msg, nil) {
					return
				}
			}

			beforeID = page[len(page)-1].ID
			p.logger.Debug("Fetched message page",
				zap.String("group_id", groupID),
				zap.Int("page_size", len(page)),
				zap.String("next_before_id", beforeID),
			)

			if p.onProgress != nil {
				p.onProgress(fetched, total)
			}
		}
	}
}

func asTransportError(err error) error {
	var transportErr *apperrors.ErrTransportFailed
	if errors.As(err, &transportErr) {
		return err
	}
	return apperrors.NewTransportFailed("message page", 0, err)
}
