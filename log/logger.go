// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package log implements the structured, leveled logging used throughout
// go-probeum: a small log15-style API (Lvl, Logger, Handler) built entirely
// on the standard library, with a single package-level Root logger that
// every call-site convenience function (Trace/Debug/.../Crit) writes
// through by default.
package log

import (
	"os"
	"sync"
	"time"
)

// Lvl is a severity level for a log Record, ordered from most (Crit) to
// least (Trace) severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

// AlignedString returns a 5-character capitalized name for the level.
func (l Lvl) AlignedString() string {
	switch l {
	case LvlTrace:
		return "TRACE"
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO "
	case LvlWarn:
		return "WARN "
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT "
	default:
		panic("bad level")
	}
}

func (l Lvl) String() string {
	switch l {
	case LvlTrace:
		return "trce"
	case LvlDebug:
		return "dbug"
	case LvlInfo:
		return "info"
	case LvlWarn:
		return "warn"
	case LvlError:
		return "eror"
	case LvlCrit:
		return "crit"
	default:
		panic("bad level")
	}
}

// LvlFromString returns the appropriate Lvl from a string name, or an error
// if the name is unknown.
func LvlFromString(lvlString string) (Lvl, error) {
	switch lvlString {
	case "trace", "trce":
		return LvlTrace, nil
	case "debug", "dbug":
		return LvlDebug, nil
	case "info":
		return LvlInfo, nil
	case "warn":
		return LvlWarn, nil
	case "error", "eror":
		return LvlError, nil
	case "crit":
		return LvlCrit, nil
	default:
		return LvlDebug, errUnknownLevel
	}
}

var errUnknownLevel = errUnknownLevelErr("unknown level")

type errUnknownLevelErr string

func (e errUnknownLevelErr) Error() string { return string(e) }

// Record is a single log event.
type Record struct {
	Time time.Time
	Lvl  Lvl
	Msg  string
	Ctx  []interface{}
}

// A Logger writes key/value structured messages at a given severity,
// optionally decorated with context inherited from New.
type Logger interface {
	New(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	GetHandler() Handler
	SetHandler(h Handler)
}

type logger struct {
	ctx []interface{}
	h   *swapHandler
}

func (l *logger) write(msg string, lvl Lvl, ctx []interface{}) {
	l.h.Log(&Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  newContext(l.ctx, ctx),
	})
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{ctx: newContext(l.ctx, ctx), h: l.h}
	return child
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(msg, LvlTrace, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(msg, LvlDebug, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(msg, LvlInfo, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(msg, LvlWarn, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(msg, LvlError, ctx) }

// Crit logs at LvlCrit and then terminates the process, matching the
// go-ethereum/go-probeum convention that a "critical" log line marks an
// unrecoverable invariant violation.
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(msg, LvlCrit, ctx)
	os.Exit(1)
}

func (l *logger) GetHandler() Handler { return l.h.Get() }
func (l *logger) SetHandler(h Handler) { l.h.Swap(h) }

func newContext(prefix []interface{}, suffix []interface{}) []interface{} {
	normalizedSuffix := normalize(suffix)
	newCtx := make([]interface{}, 0, len(prefix)+len(normalizedSuffix))
	newCtx = append(newCtx, prefix...)
	newCtx = append(newCtx, normalizedSuffix...)
	return newCtx
}

const errorKey = "LOG_ERROR"

// normalize pads an odd-length context slice so msg, "key", value triples
// never desynchronize the formatter.
func normalize(ctx []interface{}) []interface{} {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, nil, errorKey, "Normalized odd number of arguments by adding nil")
	}
	return ctx
}

var (
	rootMu sync.Mutex
	root   = &logger{h: &swapHandler{h: LvlFilterHandler(LvlInfo, StreamHandler(os.Stderr, TerminalFormat(false)))}}
)

// Root returns the root logger. Every package-level convenience function
// (Trace, Debug, ...) and every Logger returned by New ultimately writes
// through the handler attached here (or a handler attached to an ancestor
// at the time New was called).
func Root() Logger {
	rootMu.Lock()
	defer rootMu.Unlock()
	return root
}

// New returns a Logger carrying the given key/value context, writing
// through the root logger's current handler.
func New(ctx ...interface{}) Logger { return Root().New(ctx...) }

func Trace(msg string, ctx ...interface{}) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { Root().Crit(msg, ctx...) }
