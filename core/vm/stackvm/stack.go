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

// Package stackvm is the reference opcode interpreter consumed by
// core/vm.Engine through its Interpreter interface: a NeoVM-style
// stack machine with an evaluation stack, an alt stack, and an
// invocation stack of execution contexts.
package stackvm

import "github.com/probeum/go-probeum/core/vm"

// valueStack holds StackItems with the top of stack at the end of the
// slice, the same layout the limit checker's Stack.Peek(0)=="top"
// contract expects.
type valueStack struct {
	items []vm.StackItem
}

func (s *valueStack) Count() int { return len(s.items) }

func (s *valueStack) Peek(fromTop int) vm.StackItem {
	i := len(s.items) - 1 - fromTop
	if i < 0 || i >= len(s.items) {
		return vm.StackItem{}
	}
	return s.items[i]
}

func (s *valueStack) Push(item vm.StackItem) {
	s.items = append(s.items, item)
}

func (s *valueStack) Pop() (vm.StackItem, bool) {
	if len(s.items) == 0 {
		return vm.StackItem{}, false
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// insert places item at the given from-top position, shifting
// shallower items up (used by TUCK).
func (s *valueStack) insert(fromTop int, item vm.StackItem) {
	i := len(s.items) - fromTop
	if i < 0 {
		i = 0
	}
	if i > len(s.items) {
		i = len(s.items)
	}
	s.items = append(s.items, vm.StackItem{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = item
}

// remove deletes the item at the given from-top position.
func (s *valueStack) remove(fromTop int) (vm.StackItem, bool) {
	i := len(s.items) - 1 - fromTop
	if i < 0 || i >= len(s.items) {
		return vm.StackItem{}, false
	}
	item := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return item, true
}

// invocationStack is the interpreter's nested call frames. The last
// element is the currently executing context.
type invocationStack struct {
	frames []*vm.ExecutionContext
}

func (s *invocationStack) Count() int { return len(s.frames) }

func (s *invocationStack) top() *vm.ExecutionContext {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *invocationStack) push(ctx *vm.ExecutionContext) {
	s.frames = append(s.frames, ctx)
}

func (s *invocationStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}
