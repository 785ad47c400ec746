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
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// DynamicFeeTx is the transaction body of the fee-market format. It extends
// the access-list body with a max priority fee; the embedded GasPrice is
// reinterpreted as the max-fee-per-gas ceiling.
type DynamicFeeTx struct {
	AccessListTx
	GasTipCap *uint256.Int // maxPriorityFeePerGas
}

func (tx *DynamicFeeTx) copy() TxData {
	cpy := &DynamicFeeTx{
		AccessListTx: tx.copyAccessList(),
		GasTipCap:    new(uint256.Int),
	}
	if tx.GasTipCap != nil {
		cpy.GasTipCap.Set(tx.GasTipCap)
	}
	return cpy
}

func (tx *DynamicFeeTx) txType() byte { return DynamicFeeTxType }

func (tx *DynamicFeeTx) gasTipCap() *uint256.Int { return tx.GasTipCap }

func (tx *DynamicFeeTx) hasZeroGasPrice() bool {
	return tx.GasPrice.IsZero() && tx.GasTipCap.IsZero()
}

// effectiveGasPrice pays the smaller of the fee ceiling and tip+baseFee, with
// an absent base fee counting as zero. The sum saturates: if it overflows 256
// bits the ceiling is paid instead.
func (tx *DynamicFeeTx) effectiveGasPrice(dst *uint256.Int, baseFee *uint256.Int) *uint256.Int {
	if baseFee == nil {
		baseFee = new(uint256.Int)
	}
	if _, overflow := dst.AddOverflow(tx.GasTipCap, baseFee); overflow {
		return dst.Set(tx.GasPrice)
	}
	if dst.Gt(tx.GasPrice) {
		return dst.Set(tx.GasPrice)
	}
	return dst
}

// encode returns the envelope encoding: the type byte followed by the list of
// nine items, or twelve with the signature appended.
func (tx *DynamicFeeTx) encode(chainID *uint64, sig *SignatureComponents) ([]byte, error) {
	elems := []interface{}{chainIDOrZero(chainID), tx.Nonce, tx.GasTipCap, tx.GasPrice, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList}
	if sig != nil {
		elems = append(elems, sig.V, &sig.R, &sig.S)
	}
	payload, err := rlp.EncodeToBytes(elems)
	if err != nil {
		return nil, err
	}
	return append([]byte{DynamicFeeTxType}, payload...), nil
}

// decode parses the twelve-item signed payload following the envelope byte.
func (tx *DynamicFeeTx) decode(b []byte) (*uint64, SignatureComponents, error) {
	var sig SignatureComponents
	elems, err := splitList(b, 12)
	if err != nil {
		return nil, sig, err
	}
	chainID := new(uint64)
	tx.GasTipCap = new(uint256.Int)
	tx.GasPrice = new(uint256.Int)
	tx.Value = new(uint256.Int)
	if err := decodeItem(elems[0], "ChainID", chainID); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[1], "Nonce", &tx.Nonce); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[2], "GasTipCap", tx.GasTipCap); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[3], "GasPrice", tx.GasPrice); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[4], "Gas", &tx.Gas); err != nil {
		return nil, sig, err
	}
	if tx.To, err = decodeAction(elems[5]); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[6], "Value", tx.Value); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[7], "Data", &tx.Data); err != nil {
		return nil, sig, err
	}
	if tx.AccessList, err = decodeAccessList(elems[8]); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[9], "V", &sig.V); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[10], "R", &sig.R); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[11], "S", &sig.S); err != nil {
		return nil, sig, err
	}
	return chainID, sig, nil
}
