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
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// UnverifiedTransaction pairs a typed transaction with its chain id,
// signature scalars and cached hash. It is the unit encoded and decoded end
// to end. Unverified means the signature has not been checked against a
// sender; it may also be absent entirely, in which case r and s are zero.
type UnverifiedTransaction struct {
	TypedTransaction
	chainID *uint64
	sig     SignatureComponents
	hash    common.Hash
}

// DecodeTransaction decodes a transaction from its canonical encoding. The
// leading byte selects the format: a list payload opens the legacy format,
// a known envelope byte one of the typed formats.
func DecodeTransaction(b []byte) (*UnverifiedTransaction, error) {
	tx := new(UnverifiedTransaction)
	if err := tx.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return tx, nil
}

// DecodeTransactions decodes a list of transactions. Typed members appear as
// string items wrapping their envelope encoding, legacy members as nested
// lists. A string member must hold a typed envelope; a legacy encoding
// wrapped in a string is rejected.
func DecodeTransactions(b []byte) ([]*UnverifiedTransaction, error) {
	var txs []*UnverifiedTransaction
	if err := rlp.DecodeBytes(b, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// EncodeTransactions encodes transactions into the list form understood by
// DecodeTransactions.
func EncodeTransactions(txs []*UnverifiedTransaction) ([]byte, error) {
	return rlp.EncodeToBytes(txs)
}

// ChainID returns the chain id the transaction is bound to, or nil for
// legacy transactions without replay protection.
func (tx *UnverifiedTransaction) ChainID() *uint64 {
	return tx.chainID
}

// Signature returns a copy of the signature scalars.
func (tx *UnverifiedTransaction) Signature() SignatureComponents {
	return tx.sig
}

// Hash returns the cached transaction hash. Decoding leaves it zero; it is
// advisory and set through SetHash or ComputeHash by whoever owns the bytes.
func (tx *UnverifiedTransaction) Hash() common.Hash {
	return tx.hash
}

// SetHash replaces the cached hash.
func (tx *UnverifiedTransaction) SetHash(h common.Hash) {
	tx.hash = h
}

// ComputeHash fills the cached hash with the keccak hash of the canonical
// encoding and returns the transaction.
func (tx *UnverifiedTransaction) ComputeHash() *UnverifiedTransaction {
	if enc, err := tx.MarshalBinary(); err == nil {
		tx.hash = bytesHash(enc)
	}
	return tx
}

// IsUnsigned reports whether the transaction carries no signature at all:
// both curve scalars zero.
func (tx *UnverifiedTransaction) IsUnsigned() bool {
	return tx.sig.IsZero()
}

// Protected reports whether the signature is bound to a chain. Typed
// transactions always are; legacy ones only when the chain id was folded
// into v.
func (tx *UnverifiedTransaction) Protected() bool {
	if tx.Type() == LegacyTxType {
		return tx.chainID != nil
	}
	return true
}

// StandardV returns the standardized recovery id of the signature.
func (tx *UnverifiedTransaction) StandardV() byte {
	return tx.sig.V
}

// LegacyV returns v in the legacy wire form, with the chain id folded in
// when the transaction has one.
func (tx *UnverifiedTransaction) LegacyV() uint64 {
	return addReplayProtection(tx.sig.V, tx.chainID)
}

// V returns the v value the transaction's own wire format carries: the folded
// form for legacy transactions, the standardized recovery id for typed ones.
func (tx *UnverifiedTransaction) V() uint64 {
	if tx.Type() == LegacyTxType {
		return tx.LegacyV()
	}
	return uint64(tx.sig.V)
}

// SignatureBytes returns the signature in the 65-byte r || s || v form
// consumed by the recovery collaborator, with v standardized.
func (tx *UnverifiedTransaction) SignatureBytes() []byte {
	sig := make([]byte, crypto.SignatureLength)
	r := tx.sig.R.Bytes32()
	s := tx.sig.S.Bytes32()
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = tx.sig.V
	return sig
}

// MarshalBinary returns the canonical encoding of the transaction: the bare
// list for the legacy format, the type byte followed by the payload for the
// typed ones.
func (tx *UnverifiedTransaction) MarshalBinary() ([]byte, error) {
	return tx.inner.encode(tx.chainID, &tx.sig)
}

// UnmarshalBinary decodes the canonical encoding of a transaction. The hash
// field of the result is zero.
func (tx *UnverifiedTransaction) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return ErrTxTypeNotSupported
	}
	if b[0] > 0x7f {
		// It's a legacy transaction.
		var inner LegacyTx
		chainID, sig, err := inner.decode(b)
		if err != nil {
			return err
		}
		tx.setDecoded(&inner, chainID, sig)
		return nil
	}
	// It's a typed transaction envelope.
	inner, chainID, sig, err := decodeTyped(b)
	if err != nil {
		return err
	}
	tx.setDecoded(inner, chainID, sig)
	return nil
}

// EncodeRLP implements rlp.Encoder. In an enclosing list a legacy
// transaction is a plain list item while a typed one is a string item
// wrapping the envelope encoding.
func (tx *UnverifiedTransaction) EncodeRLP(w io.Writer) error {
	enc, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	if tx.Type() == LegacyTxType {
		_, err = w.Write(enc)
		return err
	}
	return rlp.Encode(w, enc)
}

// DecodeRLP implements rlp.Decoder, reading one transaction out of an
// enclosing list.
func (tx *UnverifiedTransaction) DecodeRLP(s *rlp.Stream) error {
	kind, _, err := s.Kind()
	switch {
	case err != nil:
		return err
	case kind == rlp.List:
		// It's a legacy transaction.
		raw, err := s.Raw()
		if err != nil {
			return err
		}
		var inner LegacyTx
		chainID, sig, err := inner.decode(raw)
		if err != nil {
			return err
		}
		tx.setDecoded(&inner, chainID, sig)
		return nil
	case kind == rlp.Byte:
		return errShortTypedTx
	default:
		// A string item wrapping a typed envelope. Legacy members appear
		// as plain lists, never wrapped in a string.
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return ErrTxTypeNotSupported
		}
		inner, chainID, sig, err := decodeTyped(b)
		if err != nil {
			return err
		}
		tx.setDecoded(inner, chainID, sig)
		return nil
	}
}

// setDecoded installs the decode result. The hash stays zero on purpose:
// computing it needs the encoded bytes, which the caller already holds.
func (tx *UnverifiedTransaction) setDecoded(inner TxData, chainID *uint64, sig SignatureComponents) {
	tx.TypedTransaction = TypedTransaction{inner: inner}
	tx.chainID = chainID
	tx.sig = sig
	tx.hash = common.Hash{}
}
