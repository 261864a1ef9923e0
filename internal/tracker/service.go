package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"jobtracker.local/internal/domain"
	"jobtracker.local/internal/metrics"
	"jobtracker.local/internal/store"
)

// maxAttempts bounds how often a read-modify-write is replayed after a
// concurrent save.
const maxAttempts = 3

// Mirror receives records after they are persisted.
type Mirror interface {
	RecordAdded(ctx context.Context, rec domain.ApplicationRecord) error
	StatusChanged(ctx context.Context, rec domain.ApplicationRecord) error
}

type Options struct {
	GhostThreshold time.Duration
	InitialStatus  domain.Status
	Mirror         Mirror
}

// Service runs every operation the popup needs against the Record Store.
type Service struct {
	store     *store.Store
	clock     clockwork.Clock
	threshold time.Duration
	initial   domain.Status
	mirror    Mirror
}

func NewService(st *store.Store, clock clockwork.Clock, opts Options) *Service {
	if opts.GhostThreshold <= 0 {
		opts.GhostThreshold = domain.DefaultGhostThreshold
	}
	if opts.InitialStatus == "" {
		opts.InitialStatus = domain.StatusInProgress
	}
	return &Service{
		store:     st,
		clock:     clock,
		threshold: opts.GhostThreshold,
		initial:   opts.InitialStatus,
		mirror:    opts.Mirror,
	}
}

// LoadApplications returns every application after applying the ghosting
// policy. The list is written back only when the policy changed something.
func (s *Service) LoadApplications(ctx context.Context) (domain.ApplicationList, error) {
	var (
		out     domain.ApplicationList
		changed int
	)
	err := s.update(ctx, "load", func(list domain.ApplicationList) (domain.ApplicationList, bool, error) {
		out = list
		changed = s.ghost(list)
		return list, changed > 0, nil
	})
	if err != nil {
		return nil, err
	}
	s.ghosted(ctx, changed)
	return out, nil
}

// Grouped is LoadApplications bucketed by status for tabbed rendering.
func (s *Service) Grouped(ctx context.Context) (map[domain.Status]domain.ApplicationList, error) {
	list, err := s.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	return list.GroupByStatus(), nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.ApplicationRecord, error) {
	list, err := s.LoadApplications(ctx)
	if err != nil {
		return domain.ApplicationRecord{}, err
	}
	rec, err := list.Find(id)
	if err != nil {
		return domain.ApplicationRecord{}, fmt.Errorf("application %d: %w", id, err)
	}
	return rec, nil
}

func (s *Service) AddApplication(ctx context.Context, companyName, jobLink string) (domain.ApplicationRecord, error) {
	var rec domain.ApplicationRecord
	err := s.update(ctx, "add", func(list domain.ApplicationList) (domain.ApplicationList, bool, error) {
		var err error
		rec, err = domain.NewRecord(list, companyName, jobLink, s.initial, s.clock.Now())
		if err != nil {
			return nil, false, err
		}
		return append(list, rec), true, nil
	})
	if err != nil {
		return domain.ApplicationRecord{}, err
	}

	metrics.ApplicationsAdded.Inc()
	slog.InfoContext(ctx, "Application added", "id", rec.ID, "company", rec.CompanyName, "status", rec.Status)

	if s.mirror != nil {
		if err := s.mirror.RecordAdded(ctx, rec); err != nil {
			slog.WarnContext(ctx, "Mirror add failed", "id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id int64, status domain.Status) (domain.ApplicationRecord, error) {
	var rec domain.ApplicationRecord
	err := s.update(ctx, "change_status", func(list domain.ApplicationList) (domain.ApplicationList, bool, error) {
		var err error
		rec, err = domain.SetStatus(list, id, status)
		if err != nil {
			return nil, false, fmt.Errorf("application %d: %w", id, err)
		}
		return list, true, nil
	})
	if err != nil {
		return domain.ApplicationRecord{}, err
	}

	metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	slog.InfoContext(ctx, "Status changed", "id", id, "status", status)

	if s.mirror != nil {
		if err := s.mirror.StatusChanged(ctx, rec); err != nil {
			slog.WarnContext(ctx, "Mirror status update failed", "id", id, "error", err)
		}
	}
	return rec, nil
}

// Sweep applies the ghosting policy and persists the result.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	var changed int
	err := s.update(ctx, "sweep", func(list domain.ApplicationList) (domain.ApplicationList, bool, error) {
		changed = s.ghost(list)
		return list, changed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	s.ghosted(ctx, changed)
	return changed, nil
}

func (s *Service) ghost(list domain.ApplicationList) int {
	return domain.ApplyGhostingPolicy(list, s.clock.Now(), s.threshold)
}

// ghosted records a ghosting that has been persisted.
func (s *Service) ghosted(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	metrics.ApplicationsGhosted.Add(float64(n))
	slog.InfoContext(ctx, "Applications ghosted", "count", n, "threshold", s.threshold)
}

// update loads a snapshot, hands it to mutate and saves what mutate returns
// if it reports a change. A concurrent save replays mutate on fresh state.
func (s *Service) update(ctx context.Context, op string, mutate func(domain.ApplicationList) (domain.ApplicationList, bool, error)) error {
	for attempt := 1; ; attempt++ {
		snap, err := s.store.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		list, dirty, err := mutate(snap.List)
		if err != nil {
			return err
		}
		if !dirty {
			return nil
		}
		snap.List = list

		_, err = s.store.SaveSnapshot(ctx, snap)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt == maxAttempts {
			return fmt.Errorf("%s: %w", op, err)
		}
		slog.DebugContext(ctx, "Concurrent save, retrying", "operation", op, "attempt", attempt)
	}
}
