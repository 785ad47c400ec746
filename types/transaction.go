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

// Package types implements the consensus encoding of Ethereum-style
// transactions: the legacy, access-list and fee-market formats, their
// signature replay-protection arithmetic, and the envelope dispatch that
// selects between them.
package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidSig         = errors.New("invalid transaction v, r, s values")
	ErrTxTypeNotSupported = errors.New("transaction type not supported")

	errShortTypedTx            = errors.New("typed transaction too short")
	errListLength              = errors.New("incorrect transaction list length")
	errUnknownAccessListLength = errors.New("unknown access list length")
)

// Transaction types.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
)

// TxData is the underlying body of a transaction.
//
// This is implemented by LegacyTx, AccessListTx and DynamicFeeTx. The three
// are the only implementations; every variant-independent query dispatches
// through this interface.
type TxData interface {
	txType() byte // returns the type ID
	copy() TxData // creates a deep copy and initializes all fields

	tx() *LegacyTx // the legacy core shared by every format
	accessList() AccessList
	gasTipCap() *uint256.Int
	hasZeroGasPrice() bool

	// effectiveGasPrice computes the gas price paid by the transaction,
	// given the inclusion block baseFee. The result is written to 'dst',
	// which is also returned; callers own it and may mutate it.
	effectiveGasPrice(dst *uint256.Int, baseFee *uint256.Int) *uint256.Int

	// encode produces the canonical encoding of the body, including the
	// envelope byte for typed formats. A nil sig selects the unsigned form.
	// decode parses the payload following the envelope byte (the whole
	// input for the legacy format) and returns the chain id and signature
	// scalars carried by the wire.
	encode(chainID *uint64, sig *SignatureComponents) ([]byte, error)
	decode(payload []byte) (*uint64, SignatureComponents, error)
}

// TypedTransaction is a transaction body of any of the supported formats.
// Exactly one body is active at a time.
type TypedTransaction struct {
	inner TxData
}

// NewTx creates a new transaction from a body. The body is deep-copied, so
// the caller keeps ownership of the value passed in.
func NewTx(inner TxData) *TypedTransaction {
	return &TypedTransaction{inner: inner.copy()}
}

// Type returns the transaction type.
func (tx *TypedTransaction) Type() byte {
	return tx.inner.txType()
}

// Tx returns the legacy core shared by every format. The pointer aliases the
// transaction's own state; mutations through it are visible afterwards.
func (tx *TypedTransaction) Tx() *LegacyTx {
	return tx.inner.tx()
}

// Nonce returns the sender account nonce of the transaction.
func (tx *TypedTransaction) Nonce() uint64 { return tx.inner.tx().Nonce }

// Gas returns the gas limit of the transaction.
func (tx *TypedTransaction) Gas() uint64 { return tx.inner.tx().Gas }

// Data returns the input data of the transaction.
func (tx *TypedTransaction) Data() []byte { return tx.inner.tx().Data }

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *TypedTransaction) To() *common.Address {
	return copyAddressPtr(tx.inner.tx().To)
}

// Value returns the ether amount of the transaction.
func (tx *TypedTransaction) Value() *uint256.Int {
	return new(uint256.Int).Set(tx.inner.tx().Value)
}

// GasPrice returns the gas price of the transaction; for fee-market
// transactions the stored price is the max-fee-per-gas ceiling.
func (tx *TypedTransaction) GasPrice() *uint256.Int {
	return new(uint256.Int).Set(tx.inner.tx().GasPrice)
}

// GasTipCap returns the max priority fee per gas. Formats without a separate
// tip field report their gas price, all of which bids for inclusion.
func (tx *TypedTransaction) GasTipCap() *uint256.Int {
	return new(uint256.Int).Set(tx.inner.gasTipCap())
}

// AccessList returns the access list of the transaction, or nil for the
// legacy format.
func (tx *TypedTransaction) AccessList() AccessList {
	return tx.inner.accessList()
}

// EffectiveGasPrice returns the gas price the transaction pays inside a block
// with the given base fee. For fee-market transactions this is the smaller of
// the fee ceiling and tip+baseFee, saturating to the ceiling if the sum
// overflows; other formats always pay their stored gas price. An absent base
// fee counts as zero.
func (tx *TypedTransaction) EffectiveGasPrice(baseFee *uint256.Int) *uint256.Int {
	return tx.inner.effectiveGasPrice(new(uint256.Int), baseFee)
}

// EffectiveGasTip returns the priority fee the transaction pays on top of the
// given base fee, floored at zero.
func (tx *TypedTransaction) EffectiveGasTip(baseFee *uint256.Int) *uint256.Int {
	price := tx.EffectiveGasPrice(baseFee)
	if baseFee == nil {
		return price
	}
	if price.Lt(baseFee) {
		return price.Clear()
	}
	return price.Sub(price, baseFee)
}

// HasZeroGasPrice reports whether the transaction bids nothing at all for
// inclusion.
func (tx *TypedTransaction) HasZeroGasPrice() bool {
	return tx.inner.hasZeroGasPrice()
}

// Encode returns the canonical encoding of the transaction. With a signature
// the full signed wire form is produced; with a nil signature the unsigned
// form used as the signing preimage. The chain id is written into the
// encoding for typed formats and folded into v for the legacy one.
func (tx *TypedTransaction) Encode(chainID *uint64, sig *SignatureComponents) ([]byte, error) {
	return tx.inner.encode(chainID, sig)
}

// SigningHash returns the keccak hash of the unsigned encoding, the preimage
// the signing collaborator signs.
func (tx *TypedTransaction) SigningHash(chainID *uint64) common.Hash {
	enc, _ := tx.inner.encode(chainID, nil)
	return bytesHash(enc)
}

// WithSignature binds an externally produced 65-byte r || s || v signature
// and a chain id to the transaction, yielding the wrapper handed to
// collaborators. The hash of the result is left zero; the caller hashes the
// encoded bytes if one is needed downstream. A malformed or null signature is
// reported as an error wrapping ErrInvalidSig.
func (tx *TypedTransaction) WithSignature(sig []byte, chainID *uint64) (*UnverifiedTransaction, error) {
	sc, err := signatureFromBytes(sig)
	if err != nil {
		return nil, err
	}
	return &UnverifiedTransaction{
		TypedTransaction: TypedTransaction{inner: tx.inner.copy()},
		chainID:          chainID,
		sig:              sc,
	}, nil
}

// decodeTyped decodes a typed transaction from its envelope encoding. The
// tag is inspected before the payload so that an unknown tag reports
// ErrTxTypeNotSupported no matter how short the input is.
func decodeTyped(b []byte) (TxData, *uint64, SignatureComponents, error) {
	var inner TxData
	switch b[0] {
	case AccessListTxType:
		inner = new(AccessListTx)
	case DynamicFeeTxType:
		inner = new(DynamicFeeTx)
	default:
		return nil, nil, SignatureComponents{}, ErrTxTypeNotSupported
	}
	if len(b) <= 1 {
		return nil, nil, SignatureComponents{}, errShortTypedTx
	}
	chainID, sig, err := inner.decode(b[1:])
	if err != nil {
		return nil, nil, SignatureComponents{}, err
	}
	return inner, chainID, sig, nil
}

// splitList splits b into its raw list items, requiring the exact item count
// of the caller's wire layout.
func splitList(b []byte, want int) ([]rlp.RawValue, error) {
	var elems []rlp.RawValue
	if err := rlp.DecodeBytes(b, &elems); err != nil {
		return nil, err
	}
	if len(elems) != want {
		return nil, fmt.Errorf("%w: got %d items, want %d", errListLength, len(elems), want)
	}
	return elems, nil
}

// decodeItem decodes a single list item into val, naming the field on error.
func decodeItem(elem rlp.RawValue, field string, val interface{}) error {
	if err := rlp.DecodeBytes(elem, val); err != nil {
		return fmt.Errorf("read %s: %w", field, err)
	}
	return nil
}

// decodeAction reads an action item: the empty item means contract creation,
// a 20-byte item is the call target.
func decodeAction(elem rlp.RawValue) (*common.Address, error) {
	content, _, err := rlp.SplitString(elem)
	if err != nil {
		return nil, fmt.Errorf("read To: %w", err)
	}
	switch len(content) {
	case 0:
		return nil, nil
	case common.AddressLength:
		addr := common.BytesToAddress(content)
		return &addr, nil
	default:
		return nil, fmt.Errorf("wrong size for To: %d", len(content))
	}
}

func chainIDOrZero(chainID *uint64) uint64 {
	if chainID != nil {
		return *chainID
	}
	return 0
}

// copyAddressPtr copies an address.
func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
