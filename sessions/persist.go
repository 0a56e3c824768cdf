package sessions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/go-dochub-client/storage"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/rs/zerolog/log"
)

// Persisted slot names.
const (
	KeyAccessToken  = "dochub_token"
	KeyRefreshToken = "dochub_refresh_token"
	KeyExpireAt     = "dochub_token_expire_time" // epoch milliseconds
	KeyUser         = "dochub_user_info"         // JSON user record
)

var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyExpireAt, KeyUser}

// persistence maps a Session onto four independent slots of a store.
type persistence struct {
	store storage.Store
}

func (p persistence) load() (Session, error) {
	var s Session

	raw, ok, err := p.store.Get(KeyUser)
	if err != nil {
		return Session{}, err
	}
	if ok {
		u := &users.User{}
		if err := json.Unmarshal([]byte(raw), u); err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable persisted user")
		} else {
			s.User = u
		}
	}

	if s.AccessToken, _, err = p.store.Get(KeyAccessToken); err != nil {
		return Session{}, err
	}
	if s.RefreshToken, _, err = p.store.Get(KeyRefreshToken); err != nil {
		return Session{}, err
	}

	raw, ok, err = p.store.Get(KeyExpireAt)
	if err != nil {
		return Session{}, err
	}
	if ok {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Warn().Err(err).Str("value", raw).Msg("ignoring unreadable persisted expiry")
		} else {
			s.ExpireAt = time.UnixMilli(millis)
		}
	}
	return s, nil
}

func (p persistence) save(s Session) error {
	if err := p.saveUser(s.User); err != nil {
		return err
	}
	if err := p.store.Set(KeyAccessToken, s.AccessToken); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if err := p.store.Set(KeyRefreshToken, s.RefreshToken); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	if s.ExpireAt.IsZero() {
		return p.store.Remove(KeyExpireAt)
	}
	if err := p.store.Set(KeyExpireAt, strconv.FormatInt(s.ExpireAt.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("saving expiry: %w", err)
	}
	return nil
}

func (p persistence) saveUser(u *users.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := p.store.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// clear removes every slot, attempting all of them even when one fails.
func (p persistence) clear() error {
	var first error
	for _, key := range sessionKeys {
		if err := p.store.Remove(key); err != nil && first == nil {
			first = fmt.Errorf("removing %s: %w", key, err)
		}
	}
	return first
}
