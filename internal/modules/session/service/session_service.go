package service

import (
	"context"
	"errors"
	"fmt"

	"fieldmap/internal/modules/session/domain"
	sessionout "fieldmap/internal/modules/session/port/out"
	"fieldmap/internal/platform/clock"
	apperrors "fieldmap/internal/platform/errors"
	"fieldmap/internal/platform/id"
)

type SessionService struct {
	clock   clock.Clock
	idGen   id.Generator
	active  sessionout.ActiveSessionStore
	summary sessionout.SummaryStore
}

func NewSessionService(clock clock.Clock, idGen id.Generator, active sessionout.ActiveSessionStore, summary sessionout.SummaryStore) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, active: active, summary: summary}
}

// Begin resumes the session recorded on disk, or opens a new one. An
// unreadable record still yields a fresh usable state, together with an
// ErrPersistence error.
func (s *SessionService) Begin(ctx context.Context) (domain.State, domain.ActiveSession, bool, error) {
	if s.active == nil {
		return s.fresh(), domain.ActiveSession{}, false, nil
	}
	active, err := s.active.LoadActive(ctx)
	switch {
	case err == nil:
		return domain.State{ID: active.SessionID, StartedAt: active.StartedAt, Source: active.Source}, active, true, nil
	case errors.Is(err, apperrors.ErrNoActiveSession):
		return s.fresh(), domain.ActiveSession{}, false, nil
	default:
		return s.fresh(), domain.ActiveSession{}, false, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
}

func (s *SessionService) fresh() domain.State {
	return domain.State{ID: s.idGen.New(), StartedAt: s.clock.Now()}
}

// RecordImport marks the session as owner of the freshly written snapshot.
func (s *SessionService) RecordImport(ctx context.Context, state domain.State, provenance domain.ImportProvenance) (domain.ActiveSession, error) {
	active := domain.ActiveSession{
		SessionID:  state.ID,
		StartedAt:  state.StartedAt,
		Source:     state.Source,
		ImportedAt: s.clock.Now(),
		Import:     provenance,
	}
	if s.active == nil {
		return active, nil
	}
	if err := s.active.SaveActive(ctx, active); err != nil {
		return active, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return active, nil
}

func (s *SessionService) Active(ctx context.Context) (domain.ActiveSession, error) {
	if s.active == nil {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return s.active.LoadActive(ctx)
}

// Close writes the summary note of a loaded session and forgets the active
// marker. An empty session leaves no note.
func (s *SessionService) Close(ctx context.Context, state domain.State) (string, error) {
	var (
		path string
		errs []error
	)
	if state.Loaded() && s.summary != nil {
		p, err := s.summary.Save(ctx, domain.Summarize(state, s.clock.Now()))
		if err != nil {
			errs = append(errs, err)
		}
		path = p
	}
	if s.active != nil {
		if err := s.active.ClearActive(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return path, fmt.Errorf("%w: %v", apperrors.ErrPersistence, errors.Join(errs...))
	}
	return path, nil
}
