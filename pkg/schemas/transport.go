// File: pkg/schemas/transport.go
package schemas

import "context"

// MessageTransport receives every message the library wants a human to see.
type MessageTransport interface {
	Log(msg string)
	UserAction(msg string)
	Debug(msg string)
	Error(msg string)
	Warn(msg string)
}

// SMSCodeProvider is implemented by transports that can ask a human for the
// verification code sent during login. Transports without it make SMS
// challenged logins fail immediately.
type SMSCodeProvider interface {
	OnSmsVerificationCodeSent(ctx context.Context) (string, error)
}

// Cookie is one browser cookie, with the JSON shape of the browser cookie API.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Size     int     `json:"size,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Session  bool    `json:"session"`
	SameSite string  `json:"sameSite,omitempty"`
}
