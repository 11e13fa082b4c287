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

// Package contractstore is an in-memory ScriptTable: the deployed
// contract registry the dynamic-invoke gate and APPCALL/TAILCALL
// consult to resolve a script hash to its code and properties.
package contractstore

import (
	"sync"

	"github.com/probeum/go-probeum/core/vm"
)

// Store is a concurrency-safe map of deployed contracts, keyed by
// script hash.
type Store struct {
	mu        sync.RWMutex
	contracts map[vm.Hash160]*vm.ContractState
}

// New returns an empty Store.
func New() *Store {
	return &Store{contracts: make(map[vm.Hash160]*vm.ContractState)}
}

// GetContractState implements vm.ScriptTable.
func (s *Store) GetContractState(hash vm.Hash160) (*vm.ContractState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.contracts[hash]
	return state, ok
}

// Deploy registers code under its own script hash with the given
// properties, returning the resulting state. Re-deploying the same
// hash overwrites the previous entry, the same "Migrate" semantics
// Contract.Migrate prices for.
func (s *Store) Deploy(code []byte, properties vm.ContractProperties) *vm.ContractState {
	state := &vm.ContractState{Code: code, Properties: properties}
	s.mu.Lock()
	defer s.mu.Unlock()
	state.ScriptHash = vm.ScriptHash(code)
	s.contracts[state.ScriptHash] = state
	return state
}

// Remove deletes a contract; a later GetContractState for its hash
// reports it missing.
func (s *Store) Remove(hash vm.Hash160) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, hash)
}
