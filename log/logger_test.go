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
	"bytes"
	"strings"
	"testing"
)

func TestLvlFilterHandlerDropsLessSevere(t *testing.T) {
	out := new(bytes.Buffer)
	h := LvlFilterHandler(LvlInfo, StreamHandler(out, TerminalFormat(false)))
	l := &logger{h: &swapHandler{h: h}}

	l.Debug("should not appear")
	if out.Len() != 0 {
		t.Fatalf("expected no output for a Debug record under an Info filter, got %q", out.String())
	}

	l.Warn("should appear", "k", "v")
	if !strings.Contains(out.String(), "should appear") {
		t.Fatalf("expected Warn output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "k=v") {
		t.Fatalf("expected k=v context, got %q", out.String())
	}
}

func TestLoggerNewInheritsContext(t *testing.T) {
	out := new(bytes.Buffer)
	root := &logger{h: &swapHandler{h: StreamHandler(out, TerminalFormat(false))}}
	child := root.New("component", "vm")

	child.Info("hello", "n", 1)
	have := out.String()
	if !strings.Contains(have, "component=vm") {
		t.Fatalf("expected inherited context in output, got %q", have)
	}
	if !strings.Contains(have, "n=1") {
		t.Fatalf("expected call-site context in output, got %q", have)
	}
}

func TestNewContextOddArgsPadded(t *testing.T) {
	out := new(bytes.Buffer)
	l := &logger{h: &swapHandler{h: StreamHandler(out, LogfmtFormat())}}
	l.Info("odd", "onlykey")
	if !strings.Contains(out.String(), errorKey) {
		t.Fatalf("expected odd-length context to be padded with %s, got %q", errorKey, out.String())
	}
}

func TestSwapHandlerAffectsSharedChildren(t *testing.T) {
	before := new(bytes.Buffer)
	after := new(bytes.Buffer)
	root := &logger{h: &swapHandler{h: StreamHandler(before, TerminalFormat(false))}}
	child := root.New("x", 1)

	child.Info("first")
	if before.Len() == 0 {
		t.Fatalf("expected first message to reach the original handler")
	}

	root.SetHandler(StreamHandler(after, TerminalFormat(false)))
	child.Info("second")
	if after.Len() == 0 {
		t.Fatalf("expected second message to reach the swapped handler via the shared child")
	}
}

func TestLvlFromString(t *testing.T) {
	cases := map[string]Lvl{
		"trace": LvlTrace,
		"dbug":  LvlDebug,
		"info":  LvlInfo,
		"warn":  LvlWarn,
		"eror":  LvlError,
		"crit":  LvlCrit,
	}
	for s, want := range cases {
		got, err := LvlFromString(s)
		if err != nil {
			t.Fatalf("LvlFromString(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("LvlFromString(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := LvlFromString("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown level name")
	}
}
