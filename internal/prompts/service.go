package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Fitdiary/internal/apperr"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

const latestCacheSize = 64

// Service implements template lookup and versioned creation on top of a
// Repository. Latest versions are cached per name for a short TTL; writes
// through this Service invalidate the entry.
type Service struct {
	repo   Repository
	latest *expirable.LRU[string, Template]
	now    func() time.Time
}

// NewService returns a Service. A ttl of zero disables caching.
func NewService(repo Repository, ttl time.Duration) *Service {
	s := &Service{repo: repo, now: time.Now}
	if ttl > 0 {
		s.latest = expirable.NewLRU[string, Template](latestCacheSize, nil, ttl)
	}
	return s
}

// GetLatest returns the highest version stored for name.
func (s *Service) GetLatest(ctx context.Context, name string) (Template, error) {
	if s.latest != nil {
		if t, ok := s.latest.Get(name); ok {
			return t, nil
		}
	}

	t, err := s.loadLatest(ctx, name)
	if err != nil {
		return Template{}, err
	}
	if t == nil {
		return Template{}, apperr.NotFound(fmt.Sprintf("Template %q not found", name))
	}

	if s.latest != nil {
		s.latest.Add(name, *t)
	}
	return *t, nil
}

// GetByVersion returns one exact (name, version) pair.
func (s *Service) GetByVersion(ctx context.Context, name, version string) (Template, error) {
	t, err := s.repo.GetByVersion(ctx, name, version)
	if err != nil {
		return Template{}, apperr.External("template store unavailable", err)
	}
	if t == nil {
		return Template{}, apperr.NotFound(fmt.Sprintf("Template %q version %s not found", name, version))
	}
	return *t, nil
}

// List returns the full history of name, newest first.
func (s *Service) List(ctx context.Context, name string) ([]Template, error) {
	ts, err := s.repo.ListByName(ctx, name)
	if err != nil {
		return nil, apperr.External("template store unavailable", err)
	}
	if len(ts) == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("Template %q not found", name))
	}
	SortNewestFirst(ts)
	return ts, nil
}

// CreateOrUpdate appends a new version of name when text differs from the
// latest one. created reports whether a row was written. A concurrent writer
// that claimed the same next version surfaces as apperr.ErrConflict; the
// caller decides whether to retry.
func (s *Service) CreateOrUpdate(ctx context.Context, name, text string) (t Template, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, false, apperr.Validation("Template name is required")
	}
	if strings.TrimSpace(text) == "" {
		return Template{}, false, apperr.Validation("Template text is required")
	}

	latest, err := s.loadLatest(ctx, name)
	if err != nil {
		return Template{}, false, err
	}

	version := InitialVersion
	if latest != nil {
		if latest.Text == text {
			return *latest, false, nil
		}
		version, err = BumpPatch(latest.Version)
		if err != nil {
			return Template{}, false, fmt.Errorf("cannot advance template %q: %w", name, err)
		}
	}

	t = Template{
		ID:        uuid.New(),
		Name:      name,
		Version:   version,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	if s.latest != nil {
		defer s.latest.Remove(name)
	}

	if err := s.repo.Insert(ctx, t); err != nil {
		if errors.Is(err, ErrDuplicateVersion) {
			log.Warn().Str("template", name).Str("version", version).Msg("Template version claimed by a concurrent writer")
			return Template{}, false, apperr.Conflict(
				fmt.Sprintf("Template %q was advanced concurrently, retry", name), err)
		}
		return Template{}, false, apperr.External("template store unavailable", err)
	}

	log.Info().Str("template", name).Str("version", version).Msg("Template version created")
	return t, true, nil
}

// loadLatest reads straight from the repository. It returns nil, nil when
// name has no versions.
func (s *Service) loadLatest(ctx context.Context, name string) (*Template, error) {
	ts, err := s.repo.ListByName(ctx, name)
	if err != nil {
		return nil, apperr.External("template store unavailable", err)
	}
	if len(ts) == 0 {
		return nil, nil
	}
	SortNewestFirst(ts)
	return &ts[0], nil
}

// EnsureDefaults publishes version 1.0.0 of every name in defaults that has
// no versions yet. Existing histories are left alone, and losing a seeding
// race to another instance is not an error.
func (s *Service) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	for name, text := range defaults {
		latest, err := s.loadLatest(ctx, name)
		if err != nil {
			return fmt.Errorf("checking template %q: %w", name, err)
		}
		if latest != nil {
			continue
		}
		if _, _, err := s.CreateOrUpdate(ctx, name, text); err != nil && !errors.Is(err, apperr.ErrConflict) {
			return fmt.Errorf("seeding template %q: %w", name, err)
		}
	}
	return nil
}
