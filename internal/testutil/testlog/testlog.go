package testlog

import (
	"testing"

	"github.com/gamectl/gamectl/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log := logging.Component("test")
	log.Info().Str("test", t.Name()).Msg("start")
}
