// File: internal/observability/transport.go
package observability

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// ZapTransport writes transport messages to a zap logger. User actions are
// logged at warn so they stand out on a console.
type ZapTransport struct {
	logger *zap.Logger
}

var _ schemas.MessageTransport = (*ZapTransport)(nil)

// NewZapTransport returns a transport logging under the "transport" name.
func NewZapTransport(logger *zap.Logger) *ZapTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTransport{logger: logger.Named("transport")}
}

func (t *ZapTransport) Log(msg string)   { t.logger.Info(msg) }
func (t *ZapTransport) Debug(msg string) { t.logger.Debug(msg) }
func (t *ZapTransport) Error(msg string) { t.logger.Error(msg) }
func (t *ZapTransport) Warn(msg string)  { t.logger.Warn(msg) }

func (t *ZapTransport) UserAction(msg string) {
	t.logger.Warn(msg, zap.Bool("user_action", true))
}
