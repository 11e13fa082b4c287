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

// PersistingBlock is the minimal block header view the syscall dispatcher
// and its callers need. The engine never reads its fields
// itself; it only carries the value through to whatever constructs the
// dispatcher.
type PersistingBlock struct {
	PrevHash       Hash160
	MerkleRoot     Hash160
	Timestamp      uint64
	Index          uint64
	ConsensusData  uint64
	NextConsensus  Hash160
	InvocationSig  []byte
	VerificationSc []byte
	Transactions   []Hash160
}

// Dispatcher is the host/interop service interface: an opaque
// collaborator constructed over the persisting block and the chain's
// account/validator/asset/contract/storage caches, invoked by the
// interpreter when it steps a SYSCALL opcode. The engine participates only
// by pricing the call (core/vm/price.go); dispatch itself, including any
// state mutation, is entirely the service's responsibility.
type Dispatcher interface {
	// Dispatch executes the named syscall against the evaluation stack of
	// the currently executing context, returning an error if the call
	// itself faults (distinct from a false/zero result, which the service
	// pushes onto the stack like any other return value).
	Dispatch(name string, executing Hash160, eval EvalStack) error
}

// EvalStack is the push/pop capability a Dispatcher needs against the
// interpreter's evaluation stack, a strict superset of the read-only Stack
// used by the Limit Checker.
type EvalStack interface {
	Stack
	Push(item StackItem)
	Pop() (StackItem, bool)
}
