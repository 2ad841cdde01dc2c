// File: internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/selectors"
	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

const (
	clearBeforeUnload = "window.onbeforeunload = null; true"
	englishMarker     = "English"
	detectInterval    = 100 * time.Millisecond
)

// Authenticator drives the sign-in flow on a session's page and persists the
// resulting cookies.
type Authenticator struct {
	store     session.Store
	transport schemas.MessageTransport
	timings   timings.Timings
	logger    *zap.Logger
}

// New creates an Authenticator. store may be nil, in which case cookies are
// kept on the session only.
func New(store session.Store, transport schemas.MessageTransport, t timings.Timings, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		store:     store,
		transport: transport,
		timings:   t,
		logger:    logger.Named("authenticator"),
	}
}

// attempt is the mutable state of one Login call.
type attempt struct {
	sess          *session.Session
	page          browser.Page
	creds         schemas.Credentials
	afterPassword bool
	alreadyIn     bool
}

// Login runs the state machine until the page is authenticated or a step fails.
func (a *Authenticator) Login(ctx context.Context, sess *session.Session, creds schemas.Credentials) error {
	run := &attempt{sess: sess, page: sess.Page(), creds: creds}
	state := StateStart
	for !state.Terminal() {
		a.logger.Debug("Login state", zap.Stringer("state", state), zap.String("session_id", sess.ID()))
		next, err := a.step(ctx, run, state)
		if err != nil {
			a.logger.Debug("Login state", zap.Stringer("state", StateFailed), zap.Stringer("from", state), zap.Error(err))
			return err
		}
		state = next
	}
	a.logger.Debug("Login state", zap.Stringer("state", state), zap.String("session_id", sess.ID()))
	if run.alreadyIn {
		return nil
	}
	return a.persist(ctx, run)
}

func (a *Authenticator) step(ctx context.Context, run *attempt, state State) (State, error) {
	switch state {
	case StateStart:
		return a.start(ctx, run)
	case StateLanguageCheck:
		return a.languageCheck(ctx, run)
	case StateCredentialEntry:
		return a.credentialEntry(ctx, run)
	case StateChallengeDispatch:
		return a.dispatch(ctx, run)
	case StateDeviceApproval:
		return a.deviceApproval(ctx, run)
	case StatePasswordPrompt:
		return a.password(ctx, run)
	case StateSmsChallenge:
		return a.sms(ctx, run)
	case StateRecaptchaDetected:
		return StateFailed, schemas.ChallengeError("auth.challenge", "recaptcha found")
	case StateChannelBootstrap:
		return a.channelBootstrap(ctx, run)
	case StateRecoveryEmailChallenge:
		return a.recovery(ctx, run)
	}
	return StateFailed, fmt.Errorf("auth: no transition from state %s", state)
}

func (a *Authenticator) start(ctx context.Context, run *attempt) (State, error) {
	if err := run.page.Evaluate(ctx, clearBeforeUnload, nil); err != nil {
		a.logger.Debug("Could not clear beforeunload handler", zap.Error(err))
	}
	if err := run.page.Navigate(ctx, selectors.UploadURL); err != nil {
		return StateFailed, schemas.TransientUIError("auth.start", "failed to open the upload page", err)
	}
	if !run.sess.PersistEnabled() {
		if err := run.page.WaitFor(ctx, selectors.Avatar, browser.Visible, a.timings.Avatar); err == nil {
			a.transport.Log("Account already logged in")
			run.alreadyIn = true
			return StateAuthenticated, nil
		}
	}
	return StateLanguageCheck, nil
}

func (a *Authenticator) languageCheck(ctx context.Context, run *attempt) (State, error) {
	const op = "auth.language"
	if err := run.page.WaitFor(ctx, selectors.SelectedLoginLocale, browser.Present, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to find selected language", err)
	}
	current, err := run.page.Text(ctx, selectors.SelectedLoginLocale)
	if err != nil || strings.TrimSpace(current) == "" {
		return StateFailed, schemas.TransientUIError(op, "failed to find selected language", err)
	}
	if strings.Contains(current, englishMarker) {
		return StateCredentialEntry, nil
	}

	a.logger.Debug("Switching login language", zap.String("current", current))
	if err := run.page.Click(ctx, selectors.SelectedLoginLocale); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to open the language list", err)
	}
	timings.Sleep(ctx, a.timings.Settle)
	if err := run.page.WaitFor(ctx, selectors.EnglishLoginLocale, browser.Visible, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to find english language item", err)
	}
	if err := run.page.Click(ctx, selectors.EnglishLoginLocale); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to select english", err)
	}
	timings.Sleep(ctx, a.timings.Settle)
	return StateCredentialEntry, nil
}

func (a *Authenticator) credentialEntry(ctx context.Context, run *attempt) (State, error) {
	const op = "auth.credentials"
	if err := run.page.WaitFor(ctx, selectors.EmailInput, browser.Visible, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "email input not found", err)
	}
	if err := run.page.Type(ctx, selectors.EmailInput, run.creds.Email, a.timings.KeyDelay); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to type the account id", err)
	}
	if err := run.page.Press(ctx, "Enter"); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to submit the account id", err)
	}
	if err := run.page.WaitForNavigation(ctx, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "no navigation after the account id", err)
	}
	timings.Sleep(ctx, a.timings.Settle)
	return StateChallengeDispatch, nil
}

type candidate struct {
	selector string
	state    State
}

func (a *Authenticator) dispatch(ctx context.Context, run *attempt) (State, error) {
	if run.afterPassword {
		next, found, err := a.detect(ctx, run.page, a.timings.SecondChallenge,
			candidate{selectors.SMSPinInput, StateSmsChallenge},
			candidate{selectors.CaptchaInput, StateRecaptchaDetected},
		)
		if err != nil {
			return StateFailed, err
		}
		if !found {
			return StateChannelBootstrap, nil
		}
		return next, nil
	}

	next, found, err := a.detect(ctx, run.page, a.timings.ChallengeDetect,
		candidate{selectors.DeviceApprovalCode, StateDeviceApproval},
		candidate{selectors.PasswordInput, StatePasswordPrompt},
		candidate{selectors.SMSPinInput, StateSmsChallenge},
		candidate{selectors.CaptchaInput, StateRecaptchaDetected},
	)
	if err != nil {
		return StateFailed, err
	}
	if !found {
		return StateFailed, schemas.TransientUIError("auth.challenge", "no login challenge was presented", nil)
	}
	return next, nil
}

// detect polls the candidates in order until one is present or timeout passes.
func (a *Authenticator) detect(ctx context.Context, page browser.Page, timeout time.Duration, cands ...candidate) (State, bool, error) {
	interval := detectInterval
	if timeout > 0 && timeout/10 < interval {
		interval = max(timeout/10, time.Millisecond)
	}
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for _, c := range cands {
			ok, err := page.Exists(waitCtx, c.selector)
			if err == nil && ok {
				return c.state, true, nil
			}
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return StateFailed, false, err
			}
			return StateFailed, false, nil
		}
	}
}

func (a *Authenticator) deviceApproval(ctx context.Context, run *attempt) (State, error) {
	code, err := run.page.Text(ctx, selectors.DeviceApprovalCode)
	if err != nil {
		return StateFailed, schemas.TransientUIError("auth.device_approval", "failed to read the approval code", err)
	}
	a.transport.UserAction(fmt.Sprintf("Press %s on your phone to login", strings.TrimSpace(code)))
	if err := a.awaitNavigation(ctx, run, "auth.device_approval"); err != nil {
		return StateFailed, err
	}
	run.afterPassword = true
	return StateChallengeDispatch, nil
}

func (a *Authenticator) password(ctx context.Context, run *attempt) (State, error) {
	const op = "auth.password"
	if err := run.page.WaitFor(ctx, selectors.PasswordInput, browser.Visible, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "password input not found", err)
	}
	timings.Sleep(ctx, a.timings.Settle)
	if err := run.page.Type(ctx, selectors.PasswordInput, run.creds.Password, a.timings.KeyDelay); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to type the password", err)
	}
	if err := run.page.Press(ctx, "Enter"); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to submit the password", err)
	}
	if err := a.awaitNavigation(ctx, run, op); err != nil {
		return StateFailed, err
	}
	timings.Sleep(ctx, a.timings.Settle)
	run.afterPassword = true
	return StateChallengeDispatch, nil
}

// awaitNavigation waits for the page to move on, reporting a CAPTCHA shown in
// place of the next page as a challenge.
func (a *Authenticator) awaitNavigation(ctx context.Context, run *attempt, op string) error {
	err := run.page.WaitForNavigation(ctx, a.timings.Default)
	if err == nil {
		return nil
	}
	if ok, _ := run.page.Exists(ctx, selectors.CaptchaInput); ok {
		return schemas.ChallengeError(op, "recaptcha found")
	}
	return schemas.TransientUIError(op, "no navigation after submitting", err)
}

func (a *Authenticator) sms(ctx context.Context, run *attempt) (State, error) {
	const op = "auth.sms"
	provider, ok := a.transport.(schemas.SMSCodeProvider)
	if !ok {
		return StateFailed, schemas.ChallengeError(op, "onSmsVerificationCodeSent not implemented")
	}
	code, err := provider.OnSmsVerificationCodeSent(ctx)
	if err != nil {
		return StateFailed, schemas.NewError(schemas.KindChallenge, op, "SMS code was not provided", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return StateFailed, schemas.ChallengeError(op, "invalid SMS code")
	}
	if err := run.page.Type(ctx, selectors.SMSPinInput, code, a.timings.KeyDelay); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to type the SMS code", err)
	}
	if err := run.page.Press(ctx, "Enter"); err != nil {
		return StateFailed, schemas.TransientUIError(op, "failed to submit the SMS code", err)
	}
	if err := run.page.WaitForNavigation(ctx, a.timings.Default); err != nil {
		return StateFailed, schemas.TransientUIError(op, "no navigation after the SMS code", err)
	}
	return StateChannelBootstrap, nil
}

func (a *Authenticator) channelBootstrap(ctx context.Context, run *attempt) (State, error) {
	if ok, _ := run.page.Exists(ctx, selectors.CreateChannelButton); ok {
		if err := run.page.Click(ctx, selectors.CreateChannelButton); err != nil {
			a.logger.Debug("Create channel click failed", zap.Error(err))
		}
		timings.Sleep(ctx, a.timings.PageSettle)
	} else {
		a.transport.Log("Channel already exists or there was an error creating the channel.")
	}

	err := run.page.WaitFor(ctx, selectors.UploadsDialog, browser.Present, a.timings.Liveness)
	if err == nil {
		return StateAuthenticated, nil
	}
	if run.creds.RecoveryEmail != "" {
		a.logger.Debug("Upload dialog missing, trying recovery email", zap.Error(err))
		return StateRecoveryEmailChallenge, nil
	}
	return StateFailed, notAuthenticated(err)
}

func (a *Authenticator) recovery(ctx context.Context, run *attempt) (State, error) {
	p := run.page
	if err := p.WaitFor(ctx, selectors.ConfirmRecovery, browser.Visible, a.timings.Default); err == nil {
		if err := p.Click(ctx, selectors.ConfirmRecovery); err != nil {
			return StateFailed, notAuthenticated(err)
		}
		if err := p.WaitForNavigation(ctx, a.timings.Default); err != nil {
			return StateFailed, notAuthenticated(err)
		}
	} else {
		a.transport.Log("Recovery email confirmation prompt not shown")
	}

	if err := p.WaitFor(ctx, selectors.EnterRecovery, browser.Visible, a.timings.Default); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	timings.Sleep(ctx, a.timings.Settle)
	if err := p.Focus(ctx, selectors.EmailInput); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	if err := p.Type(ctx, selectors.EmailInput, run.creds.RecoveryEmail, 2*a.timings.KeyDelay); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	if err := p.Press(ctx, "Enter"); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	if err := p.WaitForNavigation(ctx, a.timings.Default); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	if err := p.WaitFor(ctx, selectors.UploadsDialog, browser.Present, a.timings.Recovery); err != nil {
		return StateFailed, notAuthenticated(err)
	}
	return StateAuthenticated, nil
}

func notAuthenticated(cause error) error {
	return schemas.TransientUIError("auth.liveness", "login did not reach an authenticated state", cause)
}

// persist stores the page cookies once the session is verified.
func (a *Authenticator) persist(ctx context.Context, run *attempt) error {
	if !run.sess.PersistEnabled() {
		a.transport.Log("Account logged in successfully")
		return nil
	}
	cookies, err := run.page.Cookies(ctx)
	if err != nil {
		a.logger.Warn("Could not read cookies after login", zap.Error(err))
		a.transport.Log("Account logged in successfully")
		return nil
	}
	run.sess.SetCookies(cookies)
	if a.store == nil {
		a.transport.Log("Account logged in successfully")
		return nil
	}
	if err := a.store.Save(ctx, run.sess.AccountID(), cookies); err != nil {
		a.logger.Warn("Failed to persist session", zap.Error(err), zap.String("account_key", run.sess.AccountKey()))
		a.transport.Warn("The session could not be saved; the next run will sign in again.")
		return nil
	}
	a.transport.Log("Session has been successfully saved")
	return nil
}

// ProbeLiveness checks that restored cookies yield a signed-in home page.
func (a *Authenticator) ProbeLiveness(ctx context.Context, page browser.Page) error {
	const op = "auth.probe"
	if err := page.Navigate(ctx, selectors.HomeURL); err != nil {
		return schemas.SessionInvalidError(op, err)
	}
	if err := page.WaitFor(ctx, selectors.Avatar, browser.Visible, a.timings.Avatar); err != nil {
		return schemas.SessionInvalidError(op, err)
	}
	return nil
}

// ErrLanguageNotSwitched is returned when the interface stays non-English
// after every round.
var ErrLanguageNotSwitched = errors.New("interface language did not switch to English")

// EnsureHomeLanguage switches the account interface to English (UK) when the
// avatar menu shows another language.
func (a *Authenticator) EnsureHomeLanguage(ctx context.Context, page browser.Page) error {
	const op = "auth.home_language"
	rounds := max(a.timings.LanguageRounds, 1)
	// The label is read once more after the last switch.
	for round := 1; round <= rounds+1; round++ {
		if err := page.Navigate(ctx, selectors.HomeURL); err != nil {
			return schemas.TransientUIError(op, "failed to open the home page", err)
		}
		if err := page.WaitFor(ctx, selectors.Avatar, browser.Visible, a.timings.Avatar); err != nil {
			return schemas.TransientUIError(op, "avatar button not found", err)
		}
		if err := page.Click(ctx, selectors.Avatar); err != nil {
			return schemas.TransientUIError(op, "failed to open the account menu", err)
		}
		if err := page.WaitFor(ctx, selectors.HomeLanguageMenuItem, browser.Visible, a.timings.Default); err != nil {
			return schemas.TransientUIError(op, "language menu item not found", err)
		}
		label, err := page.Text(ctx, selectors.HomeLanguageMenuItem)
		if err != nil || strings.TrimSpace(label) == "" {
			return schemas.TransientUIError(op, "language menu item has no text", err)
		}
		if strings.Contains(label, englishMarker) {
			return nil
		}
		if round > rounds {
			break
		}

		a.logger.Debug("Switching interface language", zap.Int("round", round), zap.String("current", label))
		if err := page.Click(ctx, selectors.HomeLanguageMenuItem); err != nil {
			return schemas.TransientUIError(op, "failed to open the language list", err)
		}
		if err := page.WaitFor(ctx, selectors.EnglishUKItem, browser.Visible, a.timings.Default); err != nil {
			return schemas.TransientUIError(op, "English (UK) entry not found", err)
		}
		timings.Sleep(ctx, a.timings.PageSettle)
		if err := page.Click(ctx, selectors.EnglishUKItem); err != nil {
			return schemas.TransientUIError(op, "failed to select English (UK)", err)
		}
	}
	return schemas.TransientUIError(op, "language switch did not take effect", ErrLanguageNotSwitched)
}
