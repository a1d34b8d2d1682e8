// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// NewLogger creates a logger at the named level. Warnings and failures
// are written to failures, everything else to info.
func NewLogger(level string, info, failures io.Writer) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	logger.AddHook(&writer.Hook{
		Writer: failures,
		LogLevels: []log.Level{
			log.PanicLevel,
			log.FatalLevel,
			log.ErrorLevel,
			log.WarnLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: info,
		LogLevels: []log.Level{
			log.InfoLevel,
			log.DebugLevel,
			log.TraceLevel,
		},
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return logger, errors.Mark(errors.Wrapf(err, "%s", EnvLogLevel), ErrEnvironment)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
