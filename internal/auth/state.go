// File: internal/auth/state.go
package auth

// State is a step of the login state machine.
type State int

const (
	StateStart State = iota
	StateLanguageCheck
	StateCredentialEntry
	StateChallengeDispatch
	StateDeviceApproval
	StatePasswordPrompt
	StateSmsChallenge
	StateRecaptchaDetected
	StateRecoveryEmailChallenge
	StateChannelBootstrap
	StateAuthenticated
	StateFailed
)

var stateNames = map[State]string{
	StateStart:                  "start",
	StateLanguageCheck:          "language_check",
	StateCredentialEntry:        "credential_entry",
	StateChallengeDispatch:      "challenge_dispatch",
	StateDeviceApproval:         "device_approval",
	StatePasswordPrompt:         "password_prompt",
	StateSmsChallenge:           "sms_challenge",
	StateRecaptchaDetected:      "recaptcha_detected",
	StateRecoveryEmailChallenge: "recovery_email_challenge",
	StateChannelBootstrap:       "channel_bootstrap",
	StateAuthenticated:          "authenticated",
	StateFailed:                 "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed
}
