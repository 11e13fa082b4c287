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

// Package bootstrap wires the metered VM harness (core/vm) to its
// reference collaborators — the stack interpreter (core/vm/stackvm),
// the in-memory syscall dispatcher (core/vm/hostservice) and the
// contract registry (core/vm/contractstore) — into the two one-shot
// entry points a caller actually runs a script through.
//
// It lives in its own package, rather than inside core/vm itself,
// because wiring concrete collaborators into the harness necessarily
// imports them, and core/vm/stackvm and core/vm/hostservice both
// import core/vm for its shared types: folding this file into
// core/vm would be an import cycle.
package bootstrap

import (
	"github.com/probeum/go-probeum/core/vm"
	"github.com/probeum/go-probeum/core/vm/contractstore"
	"github.com/probeum/go-probeum/core/vm/hostservice"
	"github.com/probeum/go-probeum/core/vm/stackvm"
)

// SecondsPerBlock is the protocol's target block interval, used only
// to synthesize a plausible next-block timestamp when the caller
// supplies no persisting block of its own.
const SecondsPerBlock = 15

// ChainTip is the minimal view of the current chain head a caller
// supplies so a default persisting block can be synthesized. The zero value stands in for genesis.
type ChainTip struct {
	Hash          vm.Hash160
	Timestamp     uint64
	Index         uint64
	NextConsensus vm.Hash160
}

// Runtime bundles everything Run/RunWithDebug hand back to the
// caller: the engine that executed the script, the contract registry
// and cache layer it ran against (so a caller can inspect or reuse
// state across a sequence of calls), and whether execution halted
// cleanly.
type Runtime struct {
	Engine    *vm.Engine
	Contracts *contractstore.Store
	Caches    *hostservice.Caches
	Block     *vm.PersistingBlock
	Ok        bool
}

// synthesizeBlock builds the default persisting block used when a
// caller supplies none: one block ahead of the supplied tip, carrying
// its next_consensus forward and leaving witnesses/transactions empty.
func synthesizeBlock(tip ChainTip) *vm.PersistingBlock {
	return &vm.PersistingBlock{
		PrevHash:      tip.Hash,
		MerkleRoot:    vm.Hash160{},
		Timestamp:     tip.Timestamp + SecondsPerBlock,
		Index:         tip.Index + 1,
		ConsensusData: 0,
		NextConsensus: tip.NextConsensus,
	}
}

// Options customizes the engine a bootstrap entry point builds.
// The zero value runs in TestMode against a freshly synthesized
// block with an empty contract registry, matching the bootstrap
// entry points' default behavior.
type Options struct {
	Container       interface{}
	PersistingBlock *vm.PersistingBlock
	Tip             ChainTip
	Contracts       *contractstore.Store
	Gas             int64 // meter units, added to the protocol's free allowance

	// EnforceGas opts out of the bootstrap default of test_mode = true.
	// Left false, gas is still metered and visible on the returned
	// engine, but never rejects a step.
	EnforceGas bool
}

func build(opts Options) (*vm.Engine, *Runtime) {
	block := opts.PersistingBlock
	if block == nil {
		block = synthesizeBlock(opts.Tip)
	}
	contracts := opts.Contracts
	if contracts == nil {
		contracts = contractstore.New()
	}
	caches := hostservice.NewCaches()
	dispatcher := hostservice.New(block, caches, contracts)
	machine := stackvm.New(dispatcher, contracts)

	engine := vm.NewEngine(vm.TriggerApplication, opts.Container, contracts, dispatcher, machine, opts.Gas, !opts.EnforceGas)

	return engine, &Runtime{Contracts: contracts, Caches: caches, Block: block}
}

// Run loads script as a non-push-only context and executes it to
// completion ( "run(script, container?, persisting_block?)").
func Run(script []byte, opts Options) *Runtime {
	engine, rt := build(opts)
	engine.LoadScript(script, false)
	rt.Engine = engine
	rt.Ok = engine.Execute()
	return rt
}

// RunWithDebug behaves like Run but attaches a step tracer before
// loading the script, forwarding it to the dispatcher too.
func RunWithDebug(script []byte, opts Options) (*Runtime, *vm.StructLogger) {
	engine, rt := build(opts)
	logger := engine.BeginDebug()
	if attacher, ok := engine.Interpreter().(vm.DebugAttacher); ok {
		attacher.AttachTracer(logger)
	}
	engine.LoadScript(script, false)
	rt.Engine = engine
	rt.Ok = engine.Execute()
	return rt, logger
}
