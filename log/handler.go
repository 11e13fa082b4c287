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

package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// A Handler receives a Record and writes it somewhere: a stream, a file,
// a filtering/fan-out wrapper around another Handler.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler turns a plain function into a Handler.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error { return h(r) }

// swapHandler lets a Logger's handler be replaced at runtime (SetHandler)
// while already-issued child Loggers (created via New, which share the
// same *swapHandler) keep observing the change.
type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.RLock()
	h := s.h
	s.mu.RUnlock()
	return h.Log(r)
}

func (s *swapHandler) Get() Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h
}

func (s *swapHandler) Swap(h Handler) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

// DiscardHandler reports every Record as successfully logged without
// writing it anywhere; used by tests and by callers with logging disabled.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}

// StreamHandler writes each Record, rendered through fmtr, to wr. Writes
// are serialized with a mutex since wr may not be safe for concurrent use.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
}

// LvlFilterHandler wraps h so only Records at maxLvl or more severe reach
// it (Lvl values run most-severe-first, so "at or more severe" is "<=").
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// MultiHandler fans a Record out to every handler in hs, returning the
// first error encountered (but still dispatching to all of them).
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		var firstErr error
		for _, h := range hs {
			if err := h.Log(r); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

// A Format renders a Record as a line of output bytes.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc turns a plain function into a Format.
type FormatFunc func(r *Record) []byte

func (f FormatFunc) Format(r *Record) []byte { return f(r) }

const termTimeFormat = "01-02|15:04:05.000"

// TerminalFormat renders a Record the way a developer reads a terminal
// log line: "LVL [time] msg                         k=v k2=v2". Color
// escapes are only emitted when usecolor is true.
func TerminalFormat(usecolor bool) Format {
	return FormatFunc(func(r *Record) []byte {
		var b strings.Builder
		color := 0
		if usecolor {
			switch r.Lvl {
			case LvlCrit:
				color = 35
			case LvlError:
				color = 31
			case LvlWarn:
				color = 33
			case LvlInfo:
				color = 32
			case LvlDebug, LvlTrace:
				color = 36
			}
		}
		if color != 0 {
			fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m[%s] %-40s", color, r.Lvl.AlignedString(), r.Time.Format(termTimeFormat), r.Msg)
		} else {
			fmt.Fprintf(&b, "%s[%s] %-40s", r.Lvl.AlignedString(), r.Time.Format(termTimeFormat), r.Msg)
		}
		logfmtCtx(&b, r.Ctx, color != 0)
		b.WriteByte('\n')
		return []byte(b.String())
	})
}

// LogfmtFormat renders a Record as a single logfmt ("key=value ...") line,
// including the level and message as ordinary fields.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		var b strings.Builder
		fmt.Fprintf(&b, "t=%s lvl=%s msg=%s", r.Time.Format(termTimeFormat), r.Lvl, formatLogfmtValue(r.Msg, false))
		logfmtCtx(&b, r.Ctx, false)
		b.WriteByte('\n')
		return []byte(b.String())
	})
}

func logfmtCtx(b *strings.Builder, ctx []interface{}, color bool) {
	for i := 0; i+1 < len(ctx); i += 2 {
		b.WriteByte(' ')
		fmt.Fprintf(b, "%s=%s", ctx[i], formatLogfmtValue(ctx[i+1], color))
	}
}

// formatLogfmtValue stringifies v, quoting it if that's needed to keep it
// a single logfmt token (it contains whitespace, '=', or a quote).
func formatLogfmtValue(v interface{}, color bool) string {
	if v == nil {
		return "<nil>"
	}
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	s := fmt.Sprintf("%+v", v)
	if needsQuoting(s) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func needsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
