// File: internal/session/session.go
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// Session is the authenticated state of one batch: the page, the account's
// cookies and the channel currently selected. It is owned by one runner.
type Session struct {
	id        string
	accountID string
	page      browser.Page
	persist   bool

	mu      sync.Mutex
	cookies []schemas.Cookie
	channel string
}

// New creates a session over page. persist is false when a custom browser
// profile makes the cookie store redundant.
func New(accountID string, page browser.Page, persist bool) *Session {
	return &Session{
		id:        uuid.New().String(),
		accountID: accountID,
		page:      page,
		persist:   persist,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) AccountID() string    { return s.accountID }
func (s *Session) AccountKey() string   { return AccountKey(s.accountID) }
func (s *Session) Page() browser.Page   { return s.page }
func (s *Session) PersistEnabled() bool { return s.persist }

// Channel returns the last selected channel, "" when none has been selected.
func (s *Session) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Session) SetChannel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = name
}

// ResetChannel forgets the selected channel; called when a batch starts.
func (s *Session) ResetChannel() { s.SetChannel("") }

func (s *Session) Cookies() []schemas.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schemas.Cookie(nil), s.cookies...)
}

func (s *Session) SetCookies(cookies []schemas.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append([]schemas.Cookie(nil), cookies...)
}
