package vmsync

import (
	"context"
	"errors"
	"fmt"

	"infra-inventory/feature/vmsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyRunning is returned when a manual trigger finds a run in flight.
	ErrAlreadyRunning = errors.New("vm sync already running")
	// ErrHistoryDisabled is returned when run history is not persisted.
	ErrHistoryDisabled = errors.New("sync run history is disabled")
	// ErrArchiveDisabled is returned when run reports are not archived.
	ErrArchiveDisabled = errors.New("sync report archive is disabled")
	// ErrRunNotFound is returned for an unknown run id.
	ErrRunNotFound = errors.New("sync run not found")
)

// Service exposes the VM inventory and its sync engine to handlers and commands.
type Service struct {
	orchestrator *Orchestrator
	store        *GormStore
	history      History
	archive      *ReportArchive
	logger       *zap.Logger
}

// NewService creates a new vmsync service. history and archive may be nil.
func NewService(orchestrator *Orchestrator, store *GormStore, history History, archive *ReportArchive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orchestrator: orchestrator,
		store:        store,
		history:      history,
		archive:      archive,
		logger:       logger,
	}
}

// Trigger runs a manual sync. It returns ErrAlreadyRunning together with the
// rejection result when another run is in flight.
func (s *Service) Trigger(ctx context.Context) (models.TriggerResult, error) {
	result, ran := s.orchestrator.triggerManual(ctx)
	if !ran {
		return result, ErrAlreadyRunning
	}
	return result, nil
}

// Status returns the orchestrator status.
func (s *Service) Status() models.Status {
	return s.orchestrator.Status()
}

// Runs returns the most recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// ListVMs returns inventory rows, optionally restricted to one parent server.
func (s *Service) ListVMs(ctx context.Context, opts ListOptions) ([]models.VirtualMachine, error) {
	return s.store.ListVMs(ctx, opts)
}

// Report loads the archived JSON report of a run. The run's start time comes
// from history since it is part of the object key.
func (s *Service) Report(ctx context.Context, id string) (*models.RunReport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}

	run, err := s.history.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.archive.Load(ctx, run.StartedAt, run.ID)
}
