/*
DESCRIPTION
  logging.go defines the Logger interface used throughout this module and
  a default implementation writing level-tagged lines to a rotated log
  file via lumberjack, mirroring how the teacher's revid package is wired
  to ausocean/utils/logging without depending on that package directly.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package logging provides the leveled Logger interface that
// poolsched.Config and efm.Config carry, plus a default implementation
// backed by a lumberjack-rotated log file.
package logging

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log levels, ordered least to most severe.
const (
	Debug int8 = iota - 1
	Info
	Warning
	Error
	Fatal
)

// Logger is the leveled logging interface the decoder pool and the EFM
// pipeline take through their Config. No component calls log.Fatal or os.Exit
// directly; a Fatal-level Log call is the caller's decision to make.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
}

// Convenience is satisfied by loggers that also expose level-named
// helper methods, as New's return value does.
type Convenience interface {
	Logger
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
	Fatal(msg string, params ...interface{})
}

// fileLogger writes level-tagged lines to a rotating log file.
type fileLogger struct {
	level  int8
	logger *log.Logger
}

// New returns a Logger writing to path, rotated by lumberjack at maxSizeMB
// megabytes with up to maxBackups old files retained. If path is empty,
// output goes to os.Stderr unrotated.
func New(path string, maxSizeMB, maxBackups int) Convenience {
	var out *log.Logger
	if path == "" {
		out = log.New(os.Stderr, "", log.LstdFlags)
	} else {
		out = log.New(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		}, "", log.LstdFlags)
	}
	return &fileLogger{logger: out}
}

func (l *fileLogger) SetLevel(level int8) { l.level = level }

func (l *fileLogger) Log(level int8, msg string, params ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Print(levelName(level) + ": " + format(msg, params))
}

func (l *fileLogger) Debug(msg string, params ...interface{})   { l.Log(Debug, msg, params...) }
func (l *fileLogger) Info(msg string, params ...interface{})    { l.Log(Info, msg, params...) }
func (l *fileLogger) Warning(msg string, params ...interface{}) { l.Log(Warning, msg, params...) }
func (l *fileLogger) Error(msg string, params ...interface{})   { l.Log(Error, msg, params...) }
func (l *fileLogger) Fatal(msg string, params ...interface{})   { l.Log(Fatal, msg, params...) }

func levelName(level int8) string {
	switch level {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

func format(msg string, params []interface{}) string {
	if len(params) == 0 {
		return msg
	}
	for i := 0; i+1 < len(params); i += 2 {
		msg += fmt.Sprintf(" %v=%v", params[i], params[i+1])
	}
	return msg
}

// Discard is a Logger that drops every message, for use in tests that
// don't care about log output.
var Discard Convenience = discardLogger{}

type discardLogger struct{}

func (discardLogger) SetLevel(int8)                              {}
func (discardLogger) Log(int8, string, ...interface{})           {}
func (discardLogger) Debug(string, ...interface{})               {}
func (discardLogger) Info(string, ...interface{})                {}
func (discardLogger) Warning(string, ...interface{})             {}
func (discardLogger) Error(string, ...interface{})                {}
func (discardLogger) Fatal(string, ...interface{})                {}
