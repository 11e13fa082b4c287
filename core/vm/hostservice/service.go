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

// Package hostservice is the reference syscall Dispatcher: an
// in-memory implementation of the interop service the interpreter
// calls into for every SYSCALL opcode, backed by simple
// caches for accounts, validators, assets, contracts and key/value
// storage rather than a real chain database.
package hostservice

import (
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/probeum/go-probeum/core/vm"
	"github.com/probeum/go-probeum/core/vm/contractstore"
	"github.com/probeum/go-probeum/log"
)

// Account is the minimal chain-state view Runtime/Blockchain syscalls
// read and Account.SetVotes writes.
type Account struct {
	Hash    vm.Hash160
	Balance *big.Int
	Votes   []string
}

// Asset is a registered asset's mutable issuance state.
type Asset struct {
	ID        vm.Hash160
	Amount    *big.Int
	Available *big.Int
	Expiry    uint64
}

type storageKey struct {
	contract vm.Hash160
	key      string
}

// Caches holds every mutable collection the dispatcher reads or
// writes, grouped the way the wider chain keeps separate state tries
// for accounts, validators, assets and contracts.
type Caches struct {
	mu         sync.RWMutex
	Accounts   map[vm.Hash160]*Account
	Validators map[string]*big.Int // public key -> vote weight
	Assets     map[vm.Hash160]*Asset
	storage    map[storageKey][]byte
	witnessed  map[vm.Hash160]bool
}

// NewCaches returns an empty cache layer.
func NewCaches() *Caches {
	return &Caches{
		Accounts:   make(map[vm.Hash160]*Account),
		Validators: make(map[string]*big.Int),
		Assets:     make(map[vm.Hash160]*Asset),
		storage:    make(map[storageKey][]byte),
		witnessed:  make(map[vm.Hash160]bool),
	}
}

// Witness marks hash as having provided a valid signature/witness for
// the transaction under verification, so a later Runtime.CheckWitness
// against it succeeds. Real witness checking walks the verifying
// container's signer list; this harness's container is opaque, so tests authorize
// witnesses directly through this cache instead.
func (c *Caches) Witness(hash vm.Hash160) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.witnessed[hash] = true
}

// Service is the reference vm.Dispatcher.
type Service struct {
	block     *vm.PersistingBlock
	caches    *Caches
	contracts *contractstore.Store
	tracer    vm.Tracer
}

// New builds a Service over the given persisting block, cache layer
// and contract registry.
func New(block *vm.PersistingBlock, caches *Caches, contracts *contractstore.Store) *Service {
	return &Service{block: block, caches: caches, contracts: contracts}
}

// AttachTracer implements vm.DebugAttacher, so Engine.BeginDebug's
// tracer also observes syscall-level stack effects.
func (s *Service) AttachTracer(t vm.Tracer) { s.tracer = t }

func normalizeAPIName(name string) string {
	switch {
	case strings.HasPrefix(name, "AntShares."):
		return strings.TrimPrefix(name, "AntShares.")
	case strings.HasPrefix(name, "Neo."):
		return strings.TrimPrefix(name, "Neo.")
	default:
		return name
	}
}

func (s *Service) push(eval vm.EvalStack, item vm.StackItem) {
	eval.Push(item)
	if s.tracer != nil {
		s.tracer.RecordEdit(vm.StackEdit{Kind: vm.EditPush, Item: item})
	}
}

var errUnderflow = errors.New("hostservice: evaluation stack underflow")

func hashFromItem(item vm.StackItem) vm.Hash160 {
	var h vm.Hash160
	copy(h[:], item.AsByteArray())
	return h
}

// Dispatch implements vm.Dispatcher.
func (s *Service) Dispatch(name string, executing vm.Hash160, eval vm.EvalStack) error {
	switch normalizeAPIName(name) {
	case "Runtime.CheckWitness":
		item, ok := eval.Pop()
		if !ok {
			return errUnderflow
		}
		target := hashFromItem(item)
		s.caches.mu.RLock()
		witnessed := s.caches.witnessed[target]
		s.caches.mu.RUnlock()
		s.push(eval, vm.NewBoolean(witnessed))

	case "Storage.GetContext":
		s.push(eval, vm.NewByteString(executing[:]))

	case "Storage.Get":
		key, ok1 := eval.Pop()
		ctxItem, ok2 := eval.Pop()
		if !ok1 || !ok2 {
			return errUnderflow
		}
		s.caches.mu.RLock()
		value := s.caches.storage[storageKey{contract: hashFromItem(ctxItem), key: string(key.AsByteArray())}]
		s.caches.mu.RUnlock()
		s.push(eval, vm.NewByteString(value))

	case "Storage.Put":
		value, ok1 := eval.Pop()
		key, ok2 := eval.Pop()
		ctxItem, ok3 := eval.Pop()
		if !ok1 || !ok2 || !ok3 {
			return errUnderflow
		}
		s.caches.mu.Lock()
		s.caches.storage[storageKey{contract: hashFromItem(ctxItem), key: string(key.AsByteArray())}] = value.AsByteArray()
		s.caches.mu.Unlock()

	case "Storage.Delete":
		key, ok1 := eval.Pop()
		ctxItem, ok2 := eval.Pop()
		if !ok1 || !ok2 {
			return errUnderflow
		}
		s.caches.mu.Lock()
		delete(s.caches.storage, storageKey{contract: hashFromItem(ctxItem), key: string(key.AsByteArray())})
		s.caches.mu.Unlock()

	case "Account.SetVotes":
		votesItem, ok1 := eval.Pop()
		accountItem, ok2 := eval.Pop()
		if !ok1 || !ok2 {
			return errUnderflow
		}
		hash := hashFromItem(accountItem)
		s.caches.mu.Lock()
		acct, ok := s.caches.Accounts[hash]
		if !ok {
			acct = &Account{Hash: hash, Balance: new(big.Int)}
			s.caches.Accounts[hash] = acct
		}
		acct.Votes = nil
		for _, v := range votesItem.AsArray() {
			acct.Votes = append(acct.Votes, string(v.AsByteArray()))
		}
		s.caches.mu.Unlock()

	case "Contract.Create", "Contract.Migrate":
		s.doContractCreate(eval)

	case "Blockchain.GetHeader", "Blockchain.GetBlock", "Blockchain.GetTransaction",
		"Blockchain.GetAccount", "Blockchain.GetValidators", "Blockchain.GetAsset",
		"Blockchain.GetContract", "Transaction.GetReferences", "Transaction.GetUnspentCoins":
		// Read-only lookups against chain data this harness does not
		// model; push an empty result rather than faulting, so scripts
		// exercising these opcodes for pricing purposes still complete.
		s.push(eval, vm.NewByteString(nil))

	default:
		log.Trace("hostservice: unhandled syscall", "name", name)
		s.push(eval, vm.NewBoolean(false))
	}
	return nil
}

// doContractCreate pops the wider protocol's Contract.Create operand
// layout in the order the compiler pushes it in reverse — script
// first (it sits on top of the stack), then param types, return type,
// properties, name, version, author, email, description last — and
// deploys script under its own script hash, recording only the fields
// pricing and the dynamic-invoke gate care about. Properties must come
// off fourth so it sits at the same depth (eval.Peek(3), before any of
// these pops run) that priceOf/SyscallPrice charges against.
func (s *Service) doContractCreate(eval vm.EvalStack) {
	script, ok := eval.Pop()
	if !ok {
		return
	}
	if _, ok := eval.Pop(); !ok { // param types
		return
	}
	if _, ok := eval.Pop(); !ok { // return type
		return
	}
	properties, ok := eval.Pop()
	if !ok {
		return
	}
	if _, ok := eval.Pop(); !ok { // name
		return
	}
	if _, ok := eval.Pop(); !ok { // version
		return
	}
	if _, ok := eval.Pop(); !ok { // author
		return
	}
	if _, ok := eval.Pop(); !ok { // email
		return
	}
	if _, ok := eval.Pop(); !ok { // description
		return
	}
	flags := vm.ContractProperties(properties.AsBigInteger().Int64() & 0xff)
	state := s.contracts.Deploy(script.AsByteArray(), flags)
	s.push(eval, vm.NewByteString(state.ScriptHash[:]))
}
