package knowledge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// CreateContext registers a new context. Reserved names and
// duplicates are rejected.
func (s *Service) CreateContext(name, description string) (domain.Context, error) {
	if !domain.ValidContextName(name) {
		return domain.Context{}, fmt.Errorf("%w: %q", domain.ErrInvalidContextName, name)
	}
	if name == domain.DefaultContext {
		return domain.Context{}, fmt.Errorf("%w: %q", domain.ErrReservedContext, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ctxs[name]; ok {
		return domain.Context{}, fmt.Errorf("%w: %q", domain.ErrContextExists, name)
	}

	now := time.Now().UTC()
	c := &domain.Context{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}
	s.ctxs[name] = c
	return *c, nil
}

// ListContexts returns every context, `default` first then
// alphabetical.
func (s *Service) ListContexts() []domain.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.ctxs))
	for name := range s.ctxs {
		if name != domain.DefaultContext {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]domain.Context, 0, len(s.ctxs))
	if d, ok := s.ctxs[domain.DefaultContext]; ok {
		out = append(out, *d)
	}
	for _, name := range names {
		out = append(out, *s.ctxs[name])
	}
	return out
}

// GetContext returns a single context record.
func (s *Service) GetContext(name string) (domain.Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.ctxs[name]
	if !ok {
		return domain.Context{}, false
	}
	return *c, true
}

// DeleteContext drops a context's collection and record. Reserved
// names are rejected.
func (s *Service) DeleteContext(ctx context.Context, name string) error {
	if name == domain.DefaultContext {
		return fmt.Errorf("%w: %q", domain.ErrReservedContext, name)
	}

	s.mu.Lock()
	if _, ok := s.ctxs[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", domain.ErrContextNotFound, name)
	}
	delete(s.ctxs, name)
	for _, d := range s.docs {
		d.Contexts = removeString(d.Contexts, name)
	}
	s.mu.Unlock()

	return s.store.DeleteCollection(name)
}

func removeString(xs []string, v string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
