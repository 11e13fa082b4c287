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

// dynamicInvokeAllowed implements the dynamic-invoke authorization gate.
// callee is the 20-byte operand following an APPCALL/TAILCALL
// opcode; executing is the script hash of the contract currently running
// (the caller, not the callee). A static invocation (non-zero callee) is
// always permitted; a dynamic invocation (all-zero callee) requires the
// executing contract to carry HasDynamicInvoke in the script table.
func dynamicInvokeAllowed(table ScriptTable, executing Hash160, callee Hash160) bool {
	if !callee.IsZero() {
		return true
	}
	if table == nil {
		return false
	}
	state, ok := table.GetContractState(executing)
	if !ok {
		return false
	}
	return state.Properties.Has(HasDynamicInvoke)
}

// readCallHash reads the 20-byte script-hash operand following an
// APPCALL/TAILCALL opcode at ip. ok is false if fewer than 20 bytes
// remain; that case is left to the underlying interpreter's own
// out-of-bounds fault, so the gate simply reports "cannot resolve"
// rather than guessing.
func readCallHash(script []byte, ip int) (hash Hash160, ok bool) {
	start := ip + 1
	if start+20 > len(script) {
		return Hash160{}, false
	}
	copy(hash[:], script[start:start+20])
	return hash, true
}
