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

import "strings"

// syscallPrices holds the closed pricing table keyed by the syscall's
// normalized API name (prefix stripped; see normalizeAPIName). Entries
// whose price depends on the operands are computed in SyscallPrice instead
// and are not listed here.
var syscallPrices = map[string]int64{
	"Runtime.CheckWitness":        200,
	"Blockchain.GetHeader":        100,
	"Blockchain.GetBlock":         200,
	"Blockchain.GetTransaction":   100,
	"Blockchain.GetAccount":       100,
	"Blockchain.GetValidators":    200,
	"Blockchain.GetAsset":         100,
	"Blockchain.GetContract":      100,
	"Transaction.GetReferences":   200,
	"Transaction.GetUnspentCoins": 200,
	"Account.SetVotes":            1000,
	"Storage.Get":                 100,
	"Storage.Delete":              100,
}

// normalizeAPIName strips the historical (AntShares.) and current (Neo.)
// syscall namespace prefixes so both map to the same table entry.
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

// priceOf returns the price, in external gas units, of dispatching the
// upcoming opcode. The engine converts this to meter units by multiplying
// by RATIO. priceOf never mutates interpreter state; operand
// peeks are read-only.
func priceOf(eval Stack, op OpCode) int64 {
	switch {
	case op.IsPushConstant():
		return 0
	}
	switch op {
	case NOP:
		return 0
	case APPCALL, TAILCALL:
		return 10
	case SYSCALL:
		// Placeholder: Engine.chargeAndCheck replaces this with the price
		// of the decoded API name (SyscallPrice/StoragePutPrice), and keeps
		// 1 only when the name cannot be decoded from the script.
		return 1
	case SHA1, SHA256:
		return 10
	case HASH160, HASH256:
		return 20
	case CHECKSIG:
		return 100
	case CHECKMULTISIG:
		if eval.Count() < 1 {
			return 1
		}
		n := eval.Peek(0).AsBigInteger()
		if n.Sign() < 0 || !n.IsInt64() || n.Int64() < 1 {
			return 1
		}
		return 100 * n.Int64()
	default:
		return 1
	}
}

// SyscallPrice computes the price of a SYSCALL opcode invoking the named
// API, given the 1-byte length + ASCII name already decoded from the
// script. A script too short to carry the length-prefixed name never
// reaches SyscallPrice; the engine prices that SYSCALL at 1 itself.
func SyscallPrice(eval Stack, name string) int64 {
	api := normalizeAPIName(name)
	if p, ok := syscallPrices[api]; ok {
		return p
	}
	switch api {
	case "Validator.Register":
		return 1000 * 1e8 / ratioConst
	case "Asset.Create":
		return 5000 * 1e8 / ratioConst
	case "Asset.Renew":
		n := int64(1)
		if eval.Count() > 1 {
			n = int64(eval.Peek(1).AsBigInteger().Int64() & 0xff)
		}
		return n * 5000 * 1e8 / ratioConst
	case "Contract.Create", "Contract.Migrate":
		fee := int64(100)
		if eval.Count() > 3 {
			flags := ContractProperties(eval.Peek(3).AsBigInteger().Int64() & 0xff)
			if flags.Has(HasStorage) {
				fee += 400
			}
			if flags.Has(HasDynamicInvoke) {
				fee += 500
			}
		}
		return fee * 1e8 / ratioConst
	case "Storage.Put":
		// Computed by the caller via StoragePutPrice once key/value
		// lengths are known; a bare name match without operand context
		// falls through to the default price.
		return 1
	default:
		return 1
	}
}

// StoragePutPrice implements the exact ceiling-division formula:
// ceil((keyLen+valueLen)/1024) * 1000, computed without floating point as
// ((keyLen+valueLen-1)/1024 + 1) * 1000.
func StoragePutPrice(keyLen, valueLen int) int64 {
	n := keyLen + valueLen
	if n <= 0 {
		return 1000
	}
	return int64((n-1)/1024+1) * 1000
}

// DecodeSyscallName reads the 1-byte length + ASCII name following a
// SYSCALL opcode at ip. ok is false if fewer bytes remain than the decoded
// length requires; callers price such a call at 1.
func DecodeSyscallName(script []byte, ip int) (name string, ok bool) {
	if ip+1 >= len(script) {
		return "", false
	}
	length := int(script[ip+1])
	start := ip + 2
	if start+length > len(script) {
		return "", false
	}
	return string(script[start : start+length]), true
}
