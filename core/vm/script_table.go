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

// ContractProperties is the small additive bit-set of contract
// capabilities referenced by the dynamic-invoke gate and by
// Contract.Create/Migrate pricing.
type ContractProperties uint8

const (
	HasStorage       ContractProperties = 1 << 0
	HasDynamicInvoke ContractProperties = 1 << 1
)

// Has reports whether flag is set.
func (p ContractProperties) Has(flag ContractProperties) bool {
	return p&flag != 0
}

// ContractState is the subset of a deployed contract's metadata the
// metered VM harness needs.
type ContractState struct {
	ScriptHash Hash160
	Code       []byte
	Properties ContractProperties
}

// ScriptTable resolves a contract's stored state by script hash, used by
// the dynamic-invoke gate to authorize a dynamic APPCALL/TAILCALL and by
// the interpreter (core/vm/stackvm) to fetch the code an APPCALL/TAILCALL
// targets.
type ScriptTable interface {
	GetContractState(hash Hash160) (*ContractState, bool)
}
