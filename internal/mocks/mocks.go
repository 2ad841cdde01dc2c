// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// -- Session Store Mock --

// MockStore mocks a cookie store keyed by account id.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context, accountID string) ([]schemas.Cookie, error) {
	args := m.Called(ctx, accountID)
	cookies, _ := args.Get(0).([]schemas.Cookie)
	return cookies, args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, accountID string, cookies []schemas.Cookie) error {
	args := m.Called(ctx, accountID, cookies)
	return args.Error(0)
}

// -- Launcher Mock --

// MockLauncher mocks browser.Launcher.
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Page, error) {
	args := m.Called(ctx, opts)
	page, _ := args.Get(0).(browser.Page)
	return page, args.Error(1)
}

// -- Message Transport --

// Message is one line sent to a Transport.
type Message struct {
	Level string
	Text  string
}

// Transport records every message it receives.
type Transport struct {
	mu       sync.Mutex
	messages []Message
}

var _ schemas.MessageTransport = (*Transport)(nil)

func (t *Transport) record(level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Level: level, Text: msg})
}

func (t *Transport) Log(msg string)        { t.record("log", msg) }
func (t *Transport) UserAction(msg string) { t.record("user_action", msg) }
func (t *Transport) Debug(msg string)      { t.record("debug", msg) }
func (t *Transport) Error(msg string)      { t.record("error", msg) }
func (t *Transport) Warn(msg string)       { t.record("warn", msg) }

// Messages returns a copy of everything recorded so far.
func (t *Transport) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Texts returns the recorded texts at level.
func (t *Transport) Texts(level string) []string {
	var out []string
	for _, m := range t.Messages() {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

// SMSTransport is a Transport that also answers SMS prompts.
type SMSTransport struct {
	Transport
	mock.Mock
}

var _ schemas.SMSCodeProvider = (*SMSTransport)(nil)

func (t *SMSTransport) OnSmsVerificationCodeSent(ctx context.Context) (string, error) {
	args := t.Called(ctx)
	return args.String(0), args.Error(1)
}
