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

import "testing"

func TestDynamicInvokeAllowedStaticAlwaysPasses(t *testing.T) {
	var callee Hash160
	callee[0] = 1
	if !dynamicInvokeAllowed(nil, Hash160{}, callee) {
		t.Fatalf("a resolved (non-zero) callee must always be permitted")
	}
}

func TestDynamicInvokeAllowedRequiresCapability(t *testing.T) {
	var executing Hash160
	executing[0] = 7
	table := fakeTable{
		executing: {ScriptHash: executing, Properties: 0},
	}
	if dynamicInvokeAllowed(table, executing, Hash160{}) {
		t.Fatalf("dynamic invoke without HasDynamicInvoke must be denied")
	}
	table[executing].Properties = HasDynamicInvoke
	if !dynamicInvokeAllowed(table, executing, Hash160{}) {
		t.Fatalf("dynamic invoke with HasDynamicInvoke must be allowed")
	}
}

func TestDynamicInvokeAllowedUnknownContractDenied(t *testing.T) {
	if dynamicInvokeAllowed(fakeTable{}, Hash160{}, Hash160{}) {
		t.Fatalf("an unregistered executing contract must be denied dynamic invoke")
	}
}

func TestReadCallHash(t *testing.T) {
	script := append([]byte{byte(APPCALL)}, make([]byte, 20)...)
	script[5] = 0xAB
	hash, ok := readCallHash(script, 0)
	if !ok || hash[4] != 0xAB {
		t.Fatalf("readCallHash = %x, %v", hash, ok)
	}
	if _, ok := readCallHash(script[:10], 0); ok {
		t.Fatalf("expected readCallHash to report insufficient bytes")
	}
}
