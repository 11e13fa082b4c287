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

// FaultReason names why Engine.Execute returned false. It is not an error
// type: the propagation policy collapses every failure mode to a
// single boolean, and FaultReason exists only so a tracer can surface a
// human-readable cause.
type FaultReason string

const (
	FaultNone              FaultReason = ""
	FaultGasExhausted      FaultReason = "gas"
	FaultItemSize          FaultReason = "item_size"
	FaultStackSize         FaultReason = "stack_size"
	FaultArraySize         FaultReason = "array_size"
	FaultInvocationStack   FaultReason = "invocation_stack"
	FaultBigInteger        FaultReason = "big_integer"
	FaultDynamicInvoke     FaultReason = "dynamic_invoke"
	FaultMeterOverflow     FaultReason = "meter_overflow"
	FaultInterpreterFault  FaultReason = "interpreter_fault"
	FaultInterpreterThrows FaultReason = "interpreter_exception"
)
