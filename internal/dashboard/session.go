package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/market-dashboard/internal/model"
)

// Session owns the dataset and sort state of one dashboard page for its whole
// lifetime. Loads replace the dataset wholesale; the sort state survives them.
type Session struct {
	view      View
	source    DataSource
	cache     BarCache
	presenter Presenter
	logger    *zap.Logger

	mu         sync.Mutex
	sortState  model.SortState
	bars       []model.Bar
	summary    *model.Summary
	generation uint64
}

// Option configures a Session
type Option func(*Session)

// WithCache enables the cache fallback for views that use it
func WithCache(cache BarCache) Option {
	return func(s *Session) {
		s.cache = cache
	}
}

// WithSortState overrides the initial sort state
func WithSortState(state model.SortState) Option {
	return func(s *Session) {
		s.sortState = state
	}
}

// NewSession creates a new dashboard session
func NewSession(view View, source DataSource, presenter Presenter, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		view:      view,
		source:    source,
		presenter: presenter,
		logger:    logger,
		sortState: model.DefaultSortState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnLoad fetches the view's summary and records, reconciles them and renders
// the result. It returns ErrEmptyDataset when nothing usable was found and an
// ErrTransport error when the API could not be reached at all.
func (s *Session) OnLoad(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	s.presenter.Render(State{Kind: StateLoading})

	summary, records := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.logger.Debug("Discarding superseded load",
			zap.String("view", s.view.Name),
			zap.Uint64("generation", generation))
		return nil
	}

	if errors.Is(summary.Err, ErrTransport) && errors.Is(records.Err, ErrTransport) {
		s.logger.Error("Failed to load dashboard data",
			zap.String("view", s.view.Name),
			zap.String("endpoint", s.source.Endpoint()),
			zap.Error(errors.Join(summary.Err, records.Err)))
		s.bars, s.summary = nil, nil
		s.presenter.Render(State{
			Kind:    StateError,
			Message: fmt.Sprintf("Could not connect to the API. Make sure the backend is running at %s", s.source.Endpoint()),
		})
		return fmt.Errorf("load %s data: %w", s.view.Name, ErrTransport)
	}

	result := Reconcile(summary, records, s.viewCache())
	if len(result.Bars) == 0 {
		s.bars, s.summary = nil, nil
		s.presenter.Render(State{Kind: StateEmpty})
		return ErrEmptyDataset
	}

	if result.FromCache {
		s.logger.Info("Using cached records", zap.String("view", s.view.Name), zap.Int("count", len(result.Bars)))
	}

	bars := result.Bars
	if s.view.Enrich {
		bars = EnrichAll(bars)
	}
	s.bars = bars
	s.summary = result.Summary

	if cache := s.viewCache(); cache != nil {
		cache.Put(result.Bars)
	}

	s.renderLocked()
	return nil
}

// OnSortColumnSelected applies a header selection and re-renders the table
func (s *Session) OnSortColumnSelected(column string) model.SortState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortState = Toggle(s.sortState, column)
	s.presenter.SetSortIndicator(s.sortState.Column, s.sortState.Direction)
	s.renderLocked()

	return s.sortState
}

// SortState returns the active sort state
func (s *Session) SortState() model.SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortState
}

// Summary returns the summary of the last successful load, or nil
func (s *Session) Summary() *model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Projection returns the current dataset in display order
func (s *Session) Projection() []model.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SortBars(s.bars, s.sortState.Column, s.sortState.Direction)
}

// View returns the session's view
func (s *Session) View() View {
	return s.view
}

func (s *Session) viewCache() BarCache {
	if !s.view.UseCache {
		return nil
	}
	return s.cache
}

func (s *Session) renderLocked() {
	if len(s.bars) == 0 {
		return
	}
	s.presenter.Render(State{
		Kind:    StateTable,
		Summary: s.summary,
		Bars:    SortBars(s.bars, s.sortState.Column, s.sortState.Direction),
	})
}

// fetch runs both requests and waits for both to settle. Failures travel in
// the results rather than through the group so one cannot cancel the other.
func (s *Session) fetch(ctx context.Context) (SummaryResult, RecordsResult) {
	var (
		summary SummaryResult
		records RecordsResult
		group   errgroup.Group
	)

	group.Go(func() error {
		summary.Summary, summary.Err = s.source.FetchSummary(ctx)
		return nil
	})
	group.Go(func() error {
		records.Bars, records.Err = s.source.FetchBars(ctx)
		return nil
	})
	_ = group.Wait()

	if summary.Err != nil {
		s.logger.Warn("Summary fetch failed, deriving from records",
			zap.String("view", s.view.Name), zap.Error(summary.Err))
	}
	if records.Err != nil {
		s.logger.Warn("Records fetch failed",
			zap.String("view", s.view.Name), zap.Error(records.Err))
	}

	return summary, records
}
