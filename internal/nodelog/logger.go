// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nodelog is the node kernel's structured-logging shim over
// github.com/luxfi/log, following the teacher's log/nolog.go and log/noop.go
// pattern: production code depends on the log.Logger interface, tests use
// the no-op implementation.
package nodelog

import (
	"github.com/luxfi/log"
)

// Logger is the structured logger interface every subsystem depends on.
type Logger = log.Logger

// NewNoOp returns a logger that discards everything, for unit tests.
func NewNoOp() Logger {
	return log.NewNoOpLogger()
}

// Fields is a convenience alias for building structured log context.
type Fields map[string]interface{}

// flatten turns Fields into the variadic key/value pairs log.Logger.With expects.
func (f Fields) flatten() []interface{} {
	out := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}

// With returns a child logger carrying the given structured fields.
func With(l Logger, fields Fields) Logger {
	return l.With(fields.flatten()...)
}
