// Copyright 2025 The ethtx Authors
// This file is part of the ethtx library.
//
// The ethtx library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ethtx library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ethtx library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// LegacyTx is the transaction body of the original Ethereum format, and the
// core embedded by the later formats.
type LegacyTx struct {
	Nonce    uint64          // nonce of sender account
	GasPrice *uint256.Int    // wei per gas
	Gas      uint64          // gas limit
	To       *common.Address // nil means contract creation
	Value    *uint256.Int    // wei amount
	Data     []byte          // contract invocation input data
}

func (tx *LegacyTx) copy() TxData {
	cpy := tx.copyLegacy()
	return &cpy
}

func (tx *LegacyTx) copyLegacy() LegacyTx {
	cpy := LegacyTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are initialized below.
		Value:    new(uint256.Int),
		GasPrice: new(uint256.Int),
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
	}
	return cpy
}

func (tx *LegacyTx) txType() byte           { return LegacyTxType }
func (tx *LegacyTx) tx() *LegacyTx          { return tx }
func (tx *LegacyTx) accessList() AccessList { return nil }

// gasTipCap of a legacy transaction is its gas price: without a separate tip
// field the whole price bids for inclusion.
func (tx *LegacyTx) gasTipCap() *uint256.Int { return tx.GasPrice }

func (tx *LegacyTx) hasZeroGasPrice() bool { return tx.GasPrice.IsZero() }

func (tx *LegacyTx) effectiveGasPrice(dst *uint256.Int, baseFee *uint256.Int) *uint256.Int {
	return dst.Set(tx.GasPrice)
}

// encode returns the bare list encoding. Signed, the list carries nine items
// with the chain id folded into v. Unsigned it carries six, or nine with
// v = chainID and r = s = 0 when the chain id is known, which is the
// replay-protected signing layout.
func (tx *LegacyTx) encode(chainID *uint64, sig *SignatureComponents) ([]byte, error) {
	elems := []interface{}{tx.Nonce, tx.GasPrice, tx.Gas, tx.To, tx.Value, tx.Data}
	switch {
	case sig != nil:
		elems = append(elems, addReplayProtection(sig.V, chainID), &sig.R, &sig.S)
	case chainID != nil:
		elems = append(elems, *chainID, uint64(0), uint64(0))
	}
	return rlp.EncodeToBytes(elems)
}

// decode parses the nine-item signed list. The chain id and the standardized
// recovery id are both derived from the wire v.
func (tx *LegacyTx) decode(b []byte) (*uint64, SignatureComponents, error) {
	var sig SignatureComponents
	elems, err := splitList(b, 9)
	if err != nil {
		return nil, sig, err
	}
	tx.GasPrice = new(uint256.Int)
	tx.Value = new(uint256.Int)
	if err := decodeItem(elems[0], "Nonce", &tx.Nonce); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[1], "GasPrice", tx.GasPrice); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[2], "Gas", &tx.Gas); err != nil {
		return nil, sig, err
	}
	if tx.To, err = decodeAction(elems[3]); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[4], "Value", tx.Value); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[5], "Data", &tx.Data); err != nil {
		return nil, sig, err
	}
	var v uint64
	if err := decodeItem(elems[6], "V", &v); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[7], "R", &sig.R); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[8], "S", &sig.S); err != nil {
		return nil, sig, err
	}
	sig.V = extractStandardV(v)
	return deriveChainID(v), sig, nil
}
