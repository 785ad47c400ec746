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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// AccessList is a list of addresses and storage keys the transaction declares
// it will touch.
type AccessList []AccessTuple

// AccessTuple is the element type of an access list. Every entry has exactly
// these two parts on the wire; anything else is rejected during decode.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}

// AccessListTx is the transaction body of the access-list format. It extends
// the legacy body with an access list; the chain id moves out of v into its
// own wire item, so v is the standardized recovery id directly.
type AccessListTx struct {
	LegacyTx
	AccessList AccessList
}

func (tx *AccessListTx) copy() TxData {
	cpy := tx.copyAccessList()
	return &cpy
}

func (tx *AccessListTx) copyAccessList() AccessListTx {
	cpy := AccessListTx{
		LegacyTx:   tx.copyLegacy(),
		AccessList: make(AccessList, len(tx.AccessList)),
	}
	copy(cpy.AccessList, tx.AccessList)
	return cpy
}

func (tx *AccessListTx) txType() byte           { return AccessListTxType }
func (tx *AccessListTx) accessList() AccessList { return tx.AccessList }

// encode returns the envelope encoding: the type byte followed by the list of
// eight items, or eleven with the signature appended.
func (tx *AccessListTx) encode(chainID *uint64, sig *SignatureComponents) ([]byte, error) {
	elems := []interface{}{chainIDOrZero(chainID), tx.Nonce, tx.GasPrice, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList}
	if sig != nil {
		elems = append(elems, sig.V, &sig.R, &sig.S)
	}
	payload, err := rlp.EncodeToBytes(elems)
	if err != nil {
		return nil, err
	}
	return append([]byte{AccessListTxType}, payload...), nil
}

// decode parses the eleven-item signed payload following the envelope byte.
func (tx *AccessListTx) decode(b []byte) (*uint64, SignatureComponents, error) {
	var sig SignatureComponents
	elems, err := splitList(b, 11)
	if err != nil {
		return nil, sig, err
	}
	chainID := new(uint64)
	tx.GasPrice = new(uint256.Int)
	tx.Value = new(uint256.Int)
	if err := decodeItem(elems[0], "ChainID", chainID); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[1], "Nonce", &tx.Nonce); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[2], "GasPrice", tx.GasPrice); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[3], "Gas", &tx.Gas); err != nil {
		return nil, sig, err
	}
	if tx.To, err = decodeAction(elems[4]); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[5], "Value", tx.Value); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[6], "Data", &tx.Data); err != nil {
		return nil, sig, err
	}
	if tx.AccessList, err = decodeAccessList(elems[7]); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[8], "V", &sig.V); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[9], "R", &sig.R); err != nil {
		return nil, sig, err
	}
	if err := decodeItem(elems[10], "S", &sig.S); err != nil {
		return nil, sig, err
	}
	return chainID, sig, nil
}

// decodeAccessList parses the nested access-list item. Entries that are lists
// of the wrong length fail with the dedicated shape error, distinct from the
// outer length check.
func decodeAccessList(elem rlp.RawValue) (AccessList, error) {
	var entries []rlp.RawValue
	if err := rlp.DecodeBytes(elem, &entries); err != nil {
		return nil, fmt.Errorf("read AccessList: %w", err)
	}
	list := make(AccessList, 0, len(entries))
	for _, entry := range entries {
		var parts []rlp.RawValue
		if err := rlp.DecodeBytes(entry, &parts); err != nil {
			return nil, fmt.Errorf("read AccessList entry: %w", err)
		}
		if len(parts) != 2 {
			return nil, errUnknownAccessListLength
		}
		var tuple AccessTuple
		if err := decodeItem(parts[0], "AccessList address", &tuple.Address); err != nil {
			return nil, err
		}
		if err := decodeItem(parts[1], "AccessList storage keys", &tuple.StorageKeys); err != nil {
			return nil, err
		}
		list = append(list, tuple)
	}
	return list, nil
}
