package categories

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Store caches every category and the active ones. Mutations keep the
// active list consistent with each category's IsActive flag.
type Store struct {
	service Service
	all     []Category
	active  []Category
	lock    sync.RWMutex
}

func NewStore(service Service) *Store {
	return &Store{service: service}
}

func (s *Store) FetchAll(ctx context.Context) ([]Category, error) {
	list, err := s.service.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("[FetchAll] %w", err)
	}
	s.lock.Lock()
	s.all = slices.Clone(list)
	s.lock.Unlock()
	return list, nil
}

func (s *Store) FetchActive(ctx context.Context) ([]Category, error) {
	list, err := s.service.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("[FetchActive] %w", err)
	}
	s.lock.Lock()
	s.active = slices.Clone(list)
	s.lock.Unlock()
	return list, nil
}

func (s *Store) Create(ctx context.Context, request Request) (*Category, error) {
	c, err := s.service.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("[Create] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.all = append(s.all, *c)
	if c.IsActive {
		s.active = append(s.active, *c)
	}
	return c, nil
}

func (s *Store) Update(ctx context.Context, id int64, request Request) (*Category, error) {
	c, err := s.service.Update(ctx, id, request)
	if err != nil {
		return nil, fmt.Errorf("[Update] %w", err)
	}
	s.apply(id, c)
	return c, nil
}

// Toggle flips a category between active and inactive.
func (s *Store) Toggle(ctx context.Context, id int64) (*Category, error) {
	c, err := s.service.Toggle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[Toggle] %w", err)
	}
	s.apply(id, c)
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.service.Delete(ctx, id); err != nil {
		return fmt.Errorf("[Delete] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.all = slices.DeleteFunc(s.all, func(c Category) bool { return c.ID == id })
	s.active = slices.DeleteFunc(s.active, func(c Category) bool { return c.ID == id })
	return nil
}

// ByCode looks a code up among the active categories.
func (s *Store) ByCode(code string) (Category, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	i := slices.IndexFunc(s.active, func(c Category) bool { return c.Code == code })
	if i < 0 {
		return Category{}, false
	}
	return s.active[i], true
}

// Name is the display name of code, or code itself when it is not an
// active category.
func (s *Store) Name(code string) string {
	c, ok := s.ByCode(code)
	if !ok {
		return code
	}
	return c.DisplayName()
}

func (s *Store) All() []Category {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.all)
}

func (s *Store) Active() []Category {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.active)
}

func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.all = nil
	s.active = nil
}

func (s *Store) apply(id int64, c *Category) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if i := slices.IndexFunc(s.all, func(x Category) bool { return x.ID == id }); i >= 0 {
		s.all[i] = *c
	}

	i := slices.IndexFunc(s.active, func(x Category) bool { return x.ID == id })
	switch {
	case c.IsActive && i >= 0:
		s.active[i] = *c
	case c.IsActive:
		s.active = append(s.active, *c)
	case i >= 0:
		s.active = slices.Delete(s.active, i, i+1)
	}
}
