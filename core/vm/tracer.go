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

package vm

import (
	"encoding/hex"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// EditKind distinguishes the three ways a step can mutate a stack, so a
// tracer can render a diff without re-deriving it from before/after
// snapshots.
type EditKind uint8

const (
	EditPush EditKind = iota
	EditInsert
	EditSet
)

// StackEdit is one recorded mutation of an evaluation-like stack during a
// single step.
type StackEdit struct {
	Kind  EditKind
	Index int // meaningful for EditInsert/EditSet
	Item  StackItem
}

// Tracer is the engine's optional step-trace recorder. It is a
// pure observer: none of its methods may influence execution, and the
// engine elides every call when no tracer is attached, so debug tracing
// costs nothing when disabled.
type Tracer interface {
	// OnLoadScript is notified once per LoadScript, carrying the script's
	// hash (StructLogger.String renders it as hex text).
	OnLoadScript(hash Hash160)

	// SetParam surfaces a parameterised opcode's decoded immediate operand
	// ahead of NextOp, when the interpreter has one to offer.
	SetParam(op OpCode, immediate []byte)

	// NextOp is called with the instruction about to be dispatched, before
	// gas accounting or limit checks run.
	NextOp(ip int, op OpCode)

	// ClearStackRecord resets the per-step edit log; called once per loop
	// iteration immediately after NextOp.
	ClearStackRecord()

	// RecordEdit appends one stack mutation to the current step's edit
	// log. Interpreters call this as they mutate stacks during StepInto.
	RecordEdit(edit StackEdit)

	// LogResult is called once the step has completed, with the opcode
	// that ran and its final top-of-stack effect (the zero StackItem if
	// nothing is on top).
	LogResult(op OpCode, effect StackItem)

	// Finish is called exactly once, when the execution loop terminates,
	// with the final state flags and, if the run faulted, a
	// human-readable reason.
	Finish(state State, reason FaultReason)
}

// StepLog is one completed step's recording, as kept by StructLogger.
type StepLog struct {
	IP     int
	Op     OpCode
	Param  []byte
	Edits  []StackEdit
	Effect StackItem
}

// StructLogger is the reference Tracer implementation: an in-memory,
// structured step log, in the spirit of the structured debug loggers used
// elsewhere in the go-ethereum/go-probeum family for EVM tracing.
type StructLogger struct {
	ScriptHash Hash160
	Logs       []StepLog
	Final      State
	Reason     FaultReason

	pendingParam []byte
	pendingIP    int
	pendingOp    OpCode
	pendingEdits []StackEdit
}

// NewStructLogger returns a ready-to-attach StructLogger.
func NewStructLogger() *StructLogger {
	return &StructLogger{}
}

func (l *StructLogger) OnLoadScript(hash Hash160) { l.ScriptHash = hash }

func (l *StructLogger) SetParam(op OpCode, immediate []byte) {
	l.pendingParam = immediate
}

func (l *StructLogger) NextOp(ip int, op OpCode) {
	l.pendingIP, l.pendingOp = ip, op
}

func (l *StructLogger) ClearStackRecord() {
	l.pendingEdits = nil
}

func (l *StructLogger) RecordEdit(edit StackEdit) {
	l.pendingEdits = append(l.pendingEdits, edit)
}

func (l *StructLogger) LogResult(op OpCode, effect StackItem) {
	l.Logs = append(l.Logs, StepLog{
		IP:     l.pendingIP,
		Op:     op,
		Param:  l.pendingParam,
		Edits:  l.pendingEdits,
		Effect: effect,
	})
	l.pendingParam = nil
}

func (l *StructLogger) Finish(state State, reason FaultReason) {
	l.Final, l.Reason = state, reason
}

// String renders the recorded trace for debugging, using go-spew to dump
// the nested stack-item structures each step touched.
func (l *StructLogger) String() string {
	out := fmt.Sprintf("script %s, %d steps, final=%v", hex.EncodeToString(l.ScriptHash[:]), len(l.Logs), l.Final)
	if l.Reason != FaultNone {
		out += fmt.Sprintf(" reason=%s", l.Reason)
	}
	for _, step := range l.Logs {
		out += fmt.Sprintf("\n  [%d] %s edits=%s", step.IP, step.Op, spew.Sdump(step.Edits))
	}
	return out
}
