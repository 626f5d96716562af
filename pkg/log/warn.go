package log

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	sbferrors "github.com/KentaYashiro/sbfit/pkg/errors"
)

var (
	warnOnce   sync.Once
	warnLogger zerolog.Logger
)

// EnableZerologWarnings routes pkg/errors warnings through a zerolog
// console writer. Warning types that implement zerolog.LogObjectMarshaler
// (ConvergenceWarning, InfeasibleBandwidthWarning, ...) are emitted with
// their structured fields.
func EnableZerologWarnings() {
	warnOnce.Do(func() {
		warnLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Str("component", "sbfit").Logger()
	})
	sbferrors.SetZerologWarnFunc(func(warning error) {
		ev := warnLogger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(obj)
		}
		ev.Msg(warning.Error())
	})
}
