package sessions

import (
	"time"

	"github.com/jrsteele09/go-dochub-client/users"
)

// Session is the client's record of the authenticated user and their
// credentials. User and AccessToken are always set or cleared together.
type Session struct {
	User         *users.User // Nil when logged out
	AccessToken  string      // Bearer token sent with API requests
	RefreshToken string      // Exchanged for a new grant before AccessToken expires
	ExpireAt     time.Time   // Advisory access-token expiry; drives proactive refresh
}

// LoggedIn is true when both the user and the access token are present.
func (s Session) LoggedIn() bool {
	return s.User != nil && s.AccessToken != ""
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}
