package common

import (
	"fmt"
	"log"
)

const (
	confLoggerLevel = "seglog.log.level"
)

const (
	defaultLoggerLevel = int(Info)
)

type Logger interface {
	Fmt(format string, args ...interface{}) Logger

	Debug(string, ...interface{})
	Info(string, ...interface{})
	Error(string, ...interface{})
}

type LoggerLevel int

const (
	Error LoggerLevel = iota
	Info
	Debug
)

func print(format string, vals ...interface{}) {
	log.Println(fmt.Sprintf(format, vals...))
}

type standardLogger struct {
	level LoggerLevel
}

func NewStandardLogger(c Config) Logger {
	return &standardLogger{LoggerLevel(c.OptionalInt(confLoggerLevel, defaultLoggerLevel))}
}

func (s *standardLogger) Fmt(format string, args ...interface{}) Logger {
	return &formattedLogger{s, fmt.Sprintf(format, args...)}
}

func (s *standardLogger) Debug(format string, vals ...interface{}) {
	if s.level >= Debug {
		print(format, vals...)
	}
}

func (s *standardLogger) Info(format string, vals ...interface{}) {
	if s.level >= Info {
		print(format, vals...)
	}
}

func (s *standardLogger) Error(format string, vals ...interface{}) {
	if s.level >= Error {
		print(format, vals...)
	}
}

// A formatted logger decorates every line with a stable prefix.  Streams
// use this to tag their output with the segment and writer id.
type formattedLogger struct {
	log Logger
	fmt string
}

func (s *formattedLogger) Fmt(format string, args ...interface{}) Logger {
	return &formattedLogger{s, fmt.Sprintf(format, args...)}
}

func (s *formattedLogger) Debug(format string, vals ...interface{}) {
	s.log.Debug(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}

func (s *formattedLogger) Info(format string, vals ...interface{}) {
	s.log.Info(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}

func (s *formattedLogger) Error(format string, vals ...interface{}) {
	s.log.Error(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}
