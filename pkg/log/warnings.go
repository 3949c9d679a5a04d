package log

import (
	"os"

	"github.com/rs/zerolog"

	pkgerrors "github.com/forestcv/forestcv/pkg/errors"
)

// EnableZerologWarnings routes library warnings (UndefinedMetricWarning and
// friends) through a zerolog console writer. Warning types that implement
// zerolog.LogObjectMarshaler are emitted as structured objects.
func EnableZerologWarnings() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	pkgerrors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.Object("warning", m).Msg(warning.Error())
			return
		}
		ev.Err(warning).Msg("library warning")
	})
}
