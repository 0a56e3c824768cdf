package admin

import (
	"context"
	"fmt"
	"slices"
	"sync"

	errs "github.com/jrsteele09/go-dochub-client/internal/errors"
	"github.com/jrsteele09/go-dochub-client/users"
)

// Store keeps the user listing and configuration entries an administrator
// is working with. Remote calls run without the lock.
type Store struct {
	service Service

	users      []users.User
	userTotal  int
	userPage   int
	userSize   int
	userParams UserListParams
	detail     *UserDetail

	configs []SystemConfig
	lock    sync.RWMutex
}

func NewStore(service Service) *Store {
	return &Store{service: service, userPage: 1, userSize: DefaultPageSize}
}

func (s *Store) FetchUsers(ctx context.Context, params UserListParams) (*UserPage, error) {
	page, err := s.service.ListUsers(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[FetchUsers] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.users = make([]users.User, len(page.Items))
	copy(s.users, page.Items)
	s.userTotal = page.Total
	s.userPage = page.Page
	s.userSize = page.Size
	s.userParams = params
	return page, nil
}

func (s *Store) FetchUser(ctx context.Context, id int64) (*UserDetail, error) {
	detail, err := s.service.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("[FetchUser] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	d := *detail
	s.detail = &d
	s.replaceLocked(detail.User)
	return detail, nil
}

// UpdateUser applies update and reloads the account so the listing shows
// what the service stored.
func (s *Store) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*UserDetail, error) {
	if update.Role != "" && !update.Role.Valid() {
		return nil, errs.Wrapf(errs.ErrInvalidParams, "[UpdateUser] unknown role %q", update.Role)
	}
	if err := s.service.UpdateUser(ctx, id, update); err != nil {
		return nil, fmt.Errorf("[UpdateUser] %w", err)
	}
	return s.FetchUser(ctx, id)
}

// Ban disables the account; its next login or token refresh is refused
// with the disabled-account code.
func (s *Store) Ban(ctx context.Context, id int64, reason string) error {
	return s.setStatus(ctx, id, StatusRequest{Status: users.StatusBanned, Reason: reason})
}

func (s *Store) Unban(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusRequest{Status: users.StatusActive})
}

func (s *Store) setStatus(ctx context.Context, id int64, request StatusRequest) error {
	if err := s.service.SetUserStatus(ctx, id, request); err != nil {
		return fmt.Errorf("[SetUserStatus] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Status = request.Status
		}
	}
	if s.detail != nil && s.detail.User.ID == id {
		s.detail.User.Status = request.Status
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if err := s.service.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("[DeleteUser] %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	before := len(s.users)
	s.users = slices.DeleteFunc(s.users, func(u users.User) bool { return u.ID == id })
	if len(s.users) < before {
		s.userTotal = max(s.userTotal-1, 0)
	}
	if s.detail != nil && s.detail.User.ID == id {
		s.detail = nil
	}
	return nil
}

func (s *Store) Users() []users.User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) UserTotal() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.userTotal
}

func (s *Store) UserParams() UserListParams {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.userParams
}

func (s *Store) HasMoreUsers() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.userPage*s.userSize < s.userTotal
}

func (s *Store) Detail() *UserDetail {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.detail == nil {
		return nil
	}
	d := *s.detail
	return &d
}

func (s *Store) FetchConfigs(ctx context.Context, params ConfigListParams) (*ConfigPage, error) {
	page, err := s.service.ListConfigs(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("[FetchConfigs] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.configs = slices.Clone(page.Items)
	return page, nil
}

func (s *Store) FetchConfig(ctx context.Context, key string) (*SystemConfig, error) {
	c, err := s.service.GetConfig(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("[FetchConfig] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.putConfigLocked(*c)
	return c, nil
}

func (s *Store) CreateConfig(ctx context.Context, c SystemConfig) error {
	if c.Key == "" {
		return errs.Wrapf(errs.ErrInvalidParams, "[CreateConfig] missing key")
	}
	if err := s.service.CreateConfig(ctx, c); err != nil {
		return fmt.Errorf("[CreateConfig] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.putConfigLocked(c)
	return nil
}

// SetConfig changes the value of an existing key.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if key == "" {
		return errs.Wrapf(errs.ErrInvalidParams, "[SetConfig] missing key")
	}
	if err := s.service.UpdateConfig(ctx, ConfigUpdate{Key: key, Value: value}); err != nil {
		return fmt.Errorf("[SetConfig] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.configs {
		if s.configs[i].Key == key {
			s.configs[i].Value = value
		}
	}
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	if err := s.service.DeleteConfig(ctx, key); err != nil {
		return fmt.Errorf("[DeleteConfig] %w", err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.configs = slices.DeleteFunc(s.configs, func(c SystemConfig) bool { return c.Key == key })
	return nil
}

func (s *Store) Configs() []SystemConfig {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.configs)
}

// ConfigValue returns the cached value of key.
func (s *Store) ConfigValue(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, c := range s.configs {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.users = nil
	s.userTotal = 0
	s.userPage = 1
	s.userSize = DefaultPageSize
	s.userParams = UserListParams{}
	s.detail = nil
	s.configs = nil
}

func (s *Store) replaceLocked(u users.User) {
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
		}
	}
}

func (s *Store) putConfigLocked(c SystemConfig) {
	for i := range s.configs {
		if s.configs[i].Key == c.Key {
			s.configs[i] = c
			return
		}
	}
	s.configs = append(s.configs, c)
}
