// File: internal/agent/main_test.go
package agent

import (
	"os"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/browsepilot/internal/config"
	"github.com/xkilldash9x/browsepilot/internal/observability"
)

// TestMain initializes the global logger and checks that no test leaves a
// goroutine behind; the execution loop must not start any.
func TestMain(m *testing.M) {
	logConfig := config.NewDefaultConfig().Logger
	logConfig.Level = "debug"
	logConfig.ServiceName = "test-suite"
	logConfig.Format = "console"
	observability.Initialize(logConfig, zapcore.Lock(os.Stderr))

	goleak.VerifyTestMain(m)
}
