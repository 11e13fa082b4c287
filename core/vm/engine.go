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

// Package vm implements the metered, stack-based virtual machine execution
// harness used to run smart-contract bytecode deterministically: gas
// accounting, the pre-execution limit battery, the dynamic-invoke
// authorization gate, and the optional step tracer. The opcode interpreter
// itself (core/vm/stackvm), the host syscall dispatcher
// (core/vm/hostservice), and the contract code store
// (core/vm/contractstore) are consumed through the interfaces this package
// defines, not implemented by it.
package vm

import (
	"fmt"
	"math"

	"github.com/probeum/go-probeum/log"
)

// RATIO relates external fixed-point gas units to internal meter units:
// external_gas = meter_units / RATIO.
const ratioConst int64 = 100000

// GasFree is the free gas allowance every engine receives before any
// caller-supplied gas, in meter units.
const GasFree int64 = 10 * 1e8

// TriggerType enumerates why the engine is running.
type TriggerType uint8

const (
	TriggerApplication TriggerType = iota
	TriggerVerification
)

func (t TriggerType) String() string {
	if t == TriggerVerification {
		return "Verification"
	}
	return "Application"
}

// DebugAttacher is implemented optionally by a Dispatcher that wants its
// own operations logged once the engine's debug tracer is attached.
type DebugAttacher interface {
	AttachTracer(Tracer)
}

// Engine is the metered VM execution harness.
type Engine struct {
	trigger     TriggerType
	container   interface{}
	scriptTable ScriptTable
	service     Dispatcher
	interp      Interpreter

	gasAmount   int64 // meter units, immutable after construction
	gasConsumed int64 // meter units, monotone non-decreasing
	testMode    bool

	trace     Tracer
	lastFault FaultReason
}

// NewEngine constructs an engine over trigger/container/scriptTable/service
// and interp, the interpreter the engine will drive. gas is the
// caller-supplied gas, already expressed in meter units (pre-multiplied by
// RATIO); the engine adds it to the protocol's free allowance.
//
// interp is owned for the engine's lifetime, but since this package
// consumes it only through an interface, a concrete instance must be
// supplied by the caller — normally a core/vm/stackvm.Machine constructed
// by the bootstrap entry points (core/vm/bootstrap).
func NewEngine(trigger TriggerType, container interface{}, scriptTable ScriptTable, service Dispatcher, interp Interpreter, gas int64, testMode bool) *Engine {
	return &Engine{
		trigger:     trigger,
		container:   container,
		scriptTable: scriptTable,
		service:     service,
		interp:      interp,
		gasAmount:   GasFree + gas,
		testMode:    testMode,
	}
}

// Trigger reports why the engine is running.
func (e *Engine) Trigger() TriggerType { return e.trigger }

// Container returns the opaque verification/invocation container passed at
// construction (e.g. the transaction CheckWitness verifies against).
func (e *Engine) Container() interface{} { return e.container }

// TestMode reports whether gas is metered but never enforced.
func (e *Engine) TestMode() bool { return e.testMode }

// GasConsumedMeter returns gas_consumed in raw meter units.
func (e *Engine) GasConsumedMeter() int64 { return e.gasConsumed }

// GasConsumed returns gas_consumed converted to the external fixed-point
// gas unit.
func (e *Engine) GasConsumed() int64 { return e.gasConsumed / ratioConst }

// GasAmount returns the engine's gas ceiling in meter units.
func (e *Engine) GasAmount() int64 { return e.gasAmount }

// Interpreter exposes the driven interpreter, for callers that need to
// inspect final stacks after Execute returns.
func (e *Engine) Interpreter() Interpreter { return e.interp }

// BeginDebug attaches a step tracer. Calling it more than
// once replaces the previous tracer. The dispatcher is notified too, so its
// own syscall-level operations are captured by the same trace.
func (e *Engine) BeginDebug() *StructLogger {
	logger := NewStructLogger()
	e.trace = logger
	if attacher, ok := e.service.(DebugAttacher); ok {
		attacher.AttachTracer(logger)
	}
	return logger
}

// LoadScript forwards to the interpreter and records the loaded script's
// hash in the tracer, if one is attached.
func (e *Engine) LoadScript(script []byte, pushOnly bool) {
	e.interp.LoadScript(script, pushOnly)
	if e.trace != nil {
		if ctx := e.interp.CurrentContext(); ctx != nil {
			e.trace.OnLoadScript(ctx.ScriptHash)
		}
	}
}

// Execute runs the engine to completion and reports whether the final
// interpreter state excludes FAULT. This is the execution driver that
// charges gas and runs the limit battery ahead of every interpreter step.
func (e *Engine) Execute() bool {
	for {
		state := e.interp.State()
		if state.Has(StateHalt) || state.Has(StateFault) {
			break
		}

		ctx := e.interp.CurrentContext()
		op := HALT_OPCODE // synthetic marker: no opcode was fetched this iteration
		if ctx != nil && ctx.InstructionPtr < len(ctx.Script) {
			op = OpCode(ctx.Script[ctx.InstructionPtr])
			if e.trace != nil {
				e.trace.NextOp(ctx.InstructionPtr, op)
				e.trace.ClearStackRecord()
			}

			if !e.chargeAndCheck(ctx, op) {
				break
			}
		}

		if err := e.stepSafely(); err != nil {
			log.Trace("vm: interpreter step panicked", "err", err)
			e.fault(FaultInterpreterThrows)
			break
		}

		if e.trace != nil && op != HALT_OPCODE {
			e.trace.LogResult(op, e.topOfStack())
		}
	}

	final := e.interp.State()
	// A fault is either the interpreter's own (division by zero, an
	// out-of-bounds operand, a push-only violation — anything StepInto
	// itself detects and folds into State) or the engine's own
	// pre-step rejection (gas exhaustion, a limit, the dynamic-invoke
	// gate, a recovered panic) recorded in lastFault without ever
	// touching interpreter state, since a rejected step must leave the
	// interpreter exactly as it was. Either one must fail Execute.
	faulted := final.Has(StateFault) || e.lastFault != FaultNone
	if final.Has(StateFault) && e.lastFault == FaultNone {
		e.lastFault = FaultInterpreterFault
	}
	if e.trace != nil {
		e.trace.Finish(final, e.lastFault)
	}
	return !faulted
}

// chargeAndCheck prices and gas-charges op (gas is charged even if the
// step is subsequently rejected), then runs the full limit battery plus
// the dynamic-invoke gate. It returns false, having recorded the fault
// reason, the moment any check rejects, leaving interpreter state
// untouched.
func (e *Engine) chargeAndCheck(ctx *ExecutionContext, op OpCode) bool {
	eval := e.interp.EvaluationStack()

	price := priceOf(eval, op)
	if op == SYSCALL {
		if name, ok := DecodeSyscallName(ctx.Script, ctx.InstructionPtr); ok {
			price = e.priceSyscall(eval, name)
		} else {
			price = 1
		}
	}

	delta, overflow := mulOverflow(price, ratioConst)
	if overflow {
		e.fault(FaultMeterOverflow)
		return false
	}
	newConsumed, overflow := addOverflow(e.gasConsumed, delta)
	if overflow {
		e.fault(FaultMeterOverflow)
		return false
	}
	e.gasConsumed = newConsumed

	if !e.testMode && e.gasConsumed > e.gasAmount {
		e.fault(FaultGasExhausted)
		return false
	}

	alt := e.interp.AltStack()
	inv := e.interp.InvocationStack()

	if !checkItemSize(ctx, eval, op) {
		e.fault(FaultItemSize)
		return false
	}
	if !checkStackSize(eval, alt, op) {
		e.fault(FaultStackSize)
		return false
	}
	if !checkArraySize(eval, op) {
		e.fault(FaultArraySize)
		return false
	}
	if !checkInvocationStack(inv, op) {
		e.fault(FaultInvocationStack)
		return false
	}
	if !checkBigIntegers(eval, op) {
		e.fault(FaultBigInteger)
		return false
	}
	if op == APPCALL || op == TAILCALL {
		callee, ok := readCallHash(ctx.Script, ctx.InstructionPtr)
		if ok && !dynamicInvokeAllowed(e.scriptTable, ctx.ScriptHash, callee) {
			e.fault(FaultDynamicInvoke)
			return false
		}
		// if !ok, too few bytes remain: left to the interpreter's own
		// out-of-bounds fault.
	}
	return true
}

func (e *Engine) priceSyscall(eval Stack, name string) int64 {
	api := normalizeAPIName(name)
	if api == "Storage.Put" {
		// StoragePutPrice needs key/value lengths, which live on the
		// evaluation stack at the time SYSCALL is priced: top-of-stack is
		// the value, next is the key.
		if eval.Count() >= 2 {
			return StoragePutPrice(eval.Peek(1).Len(), eval.Peek(0).Len())
		}
		return 1000
	}
	return SyscallPrice(eval, name)
}

func (e *Engine) topOfStack() StackItem {
	eval := e.interp.EvaluationStack()
	if eval.Count() == 0 {
		return StackItem{}
	}
	return eval.Peek(0)
}

func (e *Engine) fault(reason FaultReason) {
	e.lastFault = reason
	log.Trace("vm: execution faulted", "reason", reason, "gasConsumed", e.gasConsumed)
}

// stepSafely calls the interpreter's StepInto, converting a panic into an
// error so a misbehaving interpreter cannot crash the host process.
func (e *Engine) stepSafely() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return e.interp.StepInto()
}

type panicError struct{ v interface{} }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

func mulOverflow(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	result := a * b
	if result/b != a {
		return 0, true
	}
	if result < 0 || result > math.MaxInt64 {
		return 0, true
	}
	return result, false
}

func addOverflow(a, b int64) (int64, bool) {
	result := a + b
	if result < a {
		return 0, true
	}
	return result, false
}
