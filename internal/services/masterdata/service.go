// Package masterdata assembles the reference-data snapshot the UI loads on
// startup: statuses, priorities, task types, leave types, teams, users,
// products, companies, and contacts. The snapshot is fetched concurrently,
// cached in Redis, and refreshed on a schedule.
package masterdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/repository"
)

// cacheKey is the Redis key holding the serialized snapshot.
const cacheKey = "timeflow:masterdata"

// Snapshot is the full reference-data payload.
type Snapshot struct {
	Statuses    []models.Status    `json:"statuses"`
	Priorities  []models.Priority  `json:"priorities"`
	TaskTypes   []models.TaskType  `json:"task_types"`
	LeaveTypes  []models.LeaveType `json:"leave_types"`
	Teams       []models.Team      `json:"teams"`
	Users       []models.User      `json:"employees"`
	Products    []models.Product   `json:"products"`
	Companies   []models.Company   `json:"companies"`
	Contacts    []models.Contact   `json:"contacts"`
	WorkModes   []string           `json:"work_modes"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Service fetches and caches the snapshot.
type Service struct {
	masters repository.MasterRepository
	cache   *redis.Client
	ttl     time.Duration
	cron    *cron.Cron
	logger  *log.Logger
	now     func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a master-data service. cache may be nil, in which case
// every Get hits the database.
func NewService(masters repository.MasterRepository, cache *redis.Client, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		masters: masters,
		cache:   cache,
		ttl:     ttl,
		logger:  log.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the snapshot, from cache when fresh.
func (s *Service) Get(ctx context.Context) (*Snapshot, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var snap Snapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				return &snap, nil
			}
			// A corrupt cache entry falls through to a rebuild.
			s.logger.Printf("[masterdata] discarding unreadable cache entry")
		} else if err != redis.Nil {
			s.logger.Printf("[masterdata] cache read failed: %v", err)
		}
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the masters and stores it in the
// cache. The nine lists are fetched concurrently; the first failure wins.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		WorkModes:   models.WorkModes,
		GeneratedAt: s.now(),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fetch func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("fetch %s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	run("statuses", func(ctx context.Context) error {
		out, err := s.masters.ListStatuses(ctx)
		snap.Statuses = out
		return err
	})
	run("priorities", func(ctx context.Context) error {
		out, err := s.masters.ListPriorities(ctx)
		snap.Priorities = out
		return err
	})
	run("task types", func(ctx context.Context) error {
		out, err := s.masters.ListTaskTypes(ctx)
		snap.TaskTypes = out
		return err
	})
	run("leave types", func(ctx context.Context) error {
		out, err := s.masters.ListLeaveTypes(ctx)
		snap.LeaveTypes = out
		return err
	})
	run("teams", func(ctx context.Context) error {
		out, err := s.masters.ListTeams(ctx)
		snap.Teams = out
		return err
	})
	run("users", func(ctx context.Context) error {
		out, err := s.masters.ListUsers(ctx)
		snap.Users = out
		return err
	})
	run("products", func(ctx context.Context) error {
		out, err := s.masters.ListProducts(ctx)
		snap.Products = out
		return err
	})
	run("companies", func(ctx context.Context) error {
		out, err := s.masters.ListCompanies(ctx)
		snap.Companies = out
		return err
	})
	run("contacts", func(ctx context.Context) error {
		out, err := s.masters.ListContacts(ctx)
		snap.Contacts = out
		return err
	})
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if s.cache != nil {
		raw, err := json.Marshal(snap)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Printf("[masterdata] cache write failed: %v", err)
			}
		}
	}
	return snap, nil
}

// StartRefresher schedules periodic cache refreshes until StopRefresher is
// called.
func (s *Service) StartRefresher(spec string) error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Printf("[masterdata] scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()
	s.cron = c
	return nil
}

// StopRefresher stops the scheduled refreshes.
func (s *Service) StopRefresher() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}
