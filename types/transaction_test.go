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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	testAddr = common.HexToAddress("0x3535353535353535353535353535353535353535")

	// The worked signing example of the chain id 1 replay-protection scheme.
	vectorInner = &LegacyTx{
		Nonce:    9,
		GasPrice: uint256.NewInt(20000000000),
		Gas:      21000,
		To:       &testAddr,
		Value:    uint256.MustFromDecimal("1000000000000000000"),
	}
	vectorUnsignedWire = common.FromHex("0xec098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a764000080018080")
	vectorSignedWire   = common.FromHex("0xf86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83")
	vectorSigningHash  = common.HexToHash("0xdaf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53")
	vectorTxHash       = common.HexToHash("0x33469b22e9f636356c4160a87eb19df52b7412e8eac32a4a55ffe88ea8350788")
	vectorR            = uint256.MustFromDecimal("18515461264373351373200002665853028612451056578545711640558177340181847433846")
	vectorS            = uint256.MustFromDecimal("46948507304638947509940763649030358759909902576025900602547168820602576006531")
)

// emptyLegacyWire returns the encoding of an all-defaults legacy body: six
// empty items, plus v, r, s when signed.
func emptyLegacyWire(signed bool) []byte {
	if signed {
		wire := append([]byte{0xc9}, bytes.Repeat([]byte{0x80}, 6)...)
		return append(wire, 0x1b, 0x80, 0x80) // v = 27
	}
	return append([]byte{0xc6}, bytes.Repeat([]byte{0x80}, 6)...)
}

// emptyAccessListWire returns the signed encoding of an all-defaults
// access-list body on chain id 1.
func emptyAccessListWire() []byte {
	wire := append([]byte{AccessListTxType, 0xcb, 0x01}, bytes.Repeat([]byte{0x80}, 6)...)
	return append(wire, 0xc0, 0x80, 0x80, 0x80)
}

// emptyDynamicFeeWire returns the signed encoding of an all-defaults
// fee-market body on chain id 1.
func emptyDynamicFeeWire() []byte {
	wire := append([]byte{DynamicFeeTxType, 0xcc, 0x01}, bytes.Repeat([]byte{0x80}, 7)...)
	return append(wire, 0xc0, 0x80, 0x80, 0x80)
}

func encodeWire(t *testing.T, elems []interface{}) []byte {
	t.Helper()
	b, err := rlp.EncodeToBytes(elems)
	if err != nil {
		t.Fatalf("encode test wire: %v", err)
	}
	return b
}

func TestLegacyEncode(t *testing.T) {
	tx := NewTx(&LegacyTx{})
	tests := []struct {
		name    string
		chainID *uint64
		sig     *SignatureComponents
		want    []byte
	}{
		{"unsigned", nil, nil, emptyLegacyWire(false)},
		{"unsigned protected", u64(1), nil, append(append([]byte{0xc9}, bytes.Repeat([]byte{0x80}, 6)...), 0x01, 0x80, 0x80)},
		{"signed", nil, &SignatureComponents{}, emptyLegacyWire(true)},
	}
	for _, tt := range tests {
		got, err := tx.Encode(tt.chainID, tt.sig)
		if err != nil {
			t.Fatalf("%s: encode error: %v", tt.name, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: encoding mismatch: got %x, want %x", tt.name, got, tt.want)
		}
	}
}

func TestLegacySigningVector(t *testing.T) {
	tx := NewTx(vectorInner)

	unsigned, err := tx.Encode(u64(1), nil)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if !bytes.Equal(unsigned, vectorUnsignedWire) {
		t.Errorf("unsigned encoding mismatch: got %x, want %x", unsigned, vectorUnsignedWire)
	}
	if h := tx.SigningHash(u64(1)); h != vectorSigningHash {
		t.Errorf("signing hash mismatch: got %x, want %x", h, vectorSigningHash)
	}

	signed, err := tx.Encode(u64(1), &SignatureComponents{V: 0, R: *vectorR, S: *vectorS})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if !bytes.Equal(signed, vectorSignedWire) {
		t.Errorf("signed encoding mismatch: got %x, want %x", signed, vectorSignedWire)
	}
}

func TestTypedSigningHash(t *testing.T) {
	for _, inner := range []TxData{&AccessListTx{}, &DynamicFeeTx{}} {
		tx := NewTx(inner)
		enc, err := tx.Encode(u64(1), nil)
		if err != nil {
			t.Fatalf("type %d: encode error: %v", tx.Type(), err)
		}
		if enc[0] != tx.Type() {
			t.Errorf("type %d: missing envelope byte, got %x", tx.Type(), enc[0])
		}
		if got, want := tx.SigningHash(u64(1)), crypto.Keccak256Hash(enc); got != want {
			t.Errorf("type %d: signing hash mismatch: got %x, want %x", tx.Type(), got, want)
		}
	}
}

func TestDecodeEnvelopeDispatch(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"empty input", nil, ErrTxTypeNotSupported},
		{"truncated access list envelope", []byte{AccessListTxType}, errShortTypedTx},
		{"truncated fee market envelope", []byte{DynamicFeeTxType}, errShortTypedTx},
		{"unknown type", []byte{0x03, 0x01}, ErrTxTypeNotSupported},
		{"unknown high type", []byte{0x7f, 0x01}, ErrTxTypeNotSupported},
		{"empty list", []byte{0xc0}, errListLength},
		{"six item legacy list", emptyLegacyWire(false), errListLength},
		{"legacy list behind typed envelope", append([]byte{AccessListTxType}, emptyLegacyWire(true)...), errListLength},
	}
	for _, tt := range tests {
		_, err := DecodeTransaction(tt.input)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: got error %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	// A lone empty string item is neither a list nor an envelope.
	if _, err := DecodeTransaction([]byte{0x80}); err == nil {
		t.Error("empty string item: decode succeeded, want error")
	}

	// A correct list with the wrong item count for its envelope.
	elems := make([]interface{}, 12)
	for i := range elems {
		elems[i] = uint64(0)
	}
	input := append([]byte{AccessListTxType}, encodeWire(t, elems)...)
	if _, err := DecodeTransaction(input); !errors.Is(err, errListLength) {
		t.Errorf("twelve item access list payload: got error %v, want %v", err, errListLength)
	}
}

func TestDecodeMalformedLegacyFields(t *testing.T) {
	good := []interface{}{
		uint64(9), uint64(1), uint64(21000), testAddr, uint64(10), []byte{}, uint64(37), uint64(1), uint64(1),
	}
	if _, err := DecodeTransaction(encodeWire(t, good)); err != nil {
		t.Fatalf("base wire rejected: %v", err)
	}

	tests := []struct {
		name    string
		item    int
		value   interface{}
		wantErr string
	}{
		{"nonce as list", 0, []uint64{}, "read Nonce"},
		{"nonce overflow", 0, bytes.Repeat([]byte{1}, 9), "read Nonce"},
		{"gas price overflow", 1, bytes.Repeat([]byte{1}, 33), "read GasPrice"},
		{"gas as list", 2, []uint64{}, "read Gas"},
		{"to as list", 3, []uint64{}, "read To"},
		{"to wrong size", 3, bytes.Repeat([]byte{1}, 19), "wrong size for To"},
		{"value leading zero", 4, []byte{0x00, 0x01}, "read Value"},
		{"data as list", 5, []uint64{}, "read Data"},
		{"v overflow", 6, bytes.Repeat([]byte{1}, 9), "read V"},
		{"r overflow", 7, bytes.Repeat([]byte{1}, 33), "read R"},
		{"s overflow", 8, bytes.Repeat([]byte{1}, 33), "read S"},
	}
	for _, tt := range tests {
		elems := make([]interface{}, len(good))
		copy(elems, good)
		elems[tt.item] = tt.value
		_, err := DecodeTransaction(encodeWire(t, elems))
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: got error %v, want %q", tt.name, err, tt.wantErr)
		}
		if errors.Is(err, errListLength) {
			t.Errorf("%s: field error reported as list length error", tt.name)
		}
	}

	// Leftover bytes after the list are rejected.
	trailing := append(encodeWire(t, good), 0x00)
	if _, err := DecodeTransaction(trailing); !errors.Is(err, rlp.ErrMoreThanOneValue) {
		t.Errorf("trailing bytes: got error %v, want %v", err, rlp.ErrMoreThanOneValue)
	}
}

func accessListWire(t *testing.T, accessList interface{}) []byte {
	t.Helper()
	payload := encodeWire(t, []interface{}{
		uint64(1), uint64(0), uint64(0), uint64(0), []byte{}, uint64(0), []byte{}, accessList, uint64(0), uint64(0), uint64(0),
	})
	return append([]byte{AccessListTxType}, payload...)
}

func TestDecodeMalformedTypedFields(t *testing.T) {
	if _, err := DecodeTransaction(accessListWire(t, AccessList{})); err != nil {
		t.Fatalf("base wire rejected: %v", err)
	}

	payload := encodeWire(t, []interface{}{
		bytes.Repeat([]byte{1}, 9), uint64(0), uint64(0), uint64(0), []byte{}, uint64(0), []byte{}, AccessList{}, uint64(0), uint64(0), uint64(0),
	})
	_, err := DecodeTransaction(append([]byte{AccessListTxType}, payload...))
	if err == nil || !strings.Contains(err.Error(), "read ChainID") {
		t.Errorf("chain id overflow: got error %v, want %q", err, "read ChainID")
	}

	payload = encodeWire(t, []interface{}{
		uint64(1), uint64(0), uint64(0), uint64(0), []byte{}, uint64(0), []byte{}, AccessList{}, []byte{1, 1}, uint64(0), uint64(0),
	})
	_, err = DecodeTransaction(append([]byte{AccessListTxType}, payload...))
	if err == nil || !strings.Contains(err.Error(), "read V") {
		t.Errorf("wide recovery id: got error %v, want %q", err, "read V")
	}
}

func TestDecodeAccessListShape(t *testing.T) {
	valid := AccessList{{Address: testAddr, StorageKeys: []common.Hash{{1}, {2}}}}
	tx, err := DecodeTransaction(accessListWire(t, valid))
	if err != nil {
		t.Fatalf("valid access list rejected: %v", err)
	}
	if got := tx.AccessList(); len(got) != 1 || got[0].Address != testAddr || len(got[0].StorageKeys) != 2 {
		t.Errorf("access list mismatch: got %+v", tx.AccessList())
	}
	if got := tx.AccessList().StorageKeys(); got != 2 {
		t.Errorf("storage key count mismatch: got %d, want 2", got)
	}

	shapes := []struct {
		name  string
		entry []interface{}
	}{
		{"one part entry", []interface{}{testAddr}},
		{"three part entry", []interface{}{testAddr, []common.Hash{}, uint64(0)}},
	}
	for _, tt := range shapes {
		_, err := DecodeTransaction(accessListWire(t, []interface{}{tt.entry}))
		if !errors.Is(err, errUnknownAccessListLength) {
			t.Errorf("%s: got error %v, want %v", tt.name, err, errUnknownAccessListLength)
		}
		if errors.Is(err, errListLength) {
			t.Errorf("%s: shape error reported as list length error", tt.name)
		}
	}

	tests := []struct {
		name       string
		accessList interface{}
		wantErr    string
	}{
		{"access list as string", []byte{1}, "read AccessList"},
		{"entry as string", []interface{}{[]byte{1}}, "read AccessList entry"},
		{"entry address wrong size", []interface{}{[]interface{}{bytes.Repeat([]byte{1}, 19), []common.Hash{}}}, "read AccessList address"},
		{"storage keys as integer", []interface{}{[]interface{}{testAddr, uint64(5)}}, "read AccessList storage keys"},
	}
	for _, tt := range tests {
		_, err := DecodeTransaction(accessListWire(t, tt.accessList))
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: got error %v, want %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestNewTxDeepCopy(t *testing.T) {
	inner := &LegacyTx{
		Nonce:    1,
		GasPrice: uint256.NewInt(2),
		Gas:      3,
		To:       &testAddr,
		Value:    uint256.NewInt(4),
		Data:     []byte{5},
	}
	tx := NewTx(inner)

	inner.GasPrice.SetUint64(99)
	inner.Data[0] = 99
	inner.To = nil
	if got := tx.GasPrice(); !got.Eq(uint256.NewInt(2)) {
		t.Errorf("gas price aliased: got %v, want 2", got)
	}
	if got := tx.Data(); got[0] != 5 {
		t.Errorf("data aliased: got %d, want 5", got[0])
	}
	if got := tx.To(); got == nil || *got != testAddr {
		t.Errorf("to aliased: got %v, want %v", got, testAddr)
	}

	// Accessors return copies as well.
	tx.Value().SetUint64(77)
	if got := tx.Value(); !got.Eq(uint256.NewInt(4)) {
		t.Errorf("value aliased through accessor: got %v, want 4", got)
	}
	addr := tx.To()
	addr[0] = 0xff
	if got := tx.To(); *got != testAddr {
		t.Errorf("to aliased through accessor: got %v, want %v", got, testAddr)
	}
}

func TestWithSignatureValidation(t *testing.T) {
	tx := NewTx(vectorInner)

	valid := make([]byte, crypto.SignatureLength)
	valid[31] = 1
	valid[63] = 1
	valid[64] = 1
	signed, err := tx.WithSignature(valid, u64(1))
	if err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if got := signed.Signature(); got.V != 1 || !got.R.Eq(uint256.NewInt(1)) {
		t.Errorf("signature not carried over: got %+v", got)
	}

	badRecovery := make([]byte, crypto.SignatureLength)
	badRecovery[0] = 1
	badRecovery[64] = 27
	tests := []struct {
		name string
		sig  []byte
	}{
		{"short", make([]byte, crypto.SignatureLength-1)},
		{"null", make([]byte, crypto.SignatureLength)},
		{"legacy recovery id", badRecovery},
	}
	for _, tt := range tests {
		signed, err := tx.WithSignature(tt.sig, u64(1))
		if !errors.Is(err, ErrInvalidSig) {
			t.Errorf("%s: got error %v, want ErrInvalidSig", tt.name, err)
		}
		if signed != nil {
			t.Errorf("%s: got transaction despite invalid signature", tt.name)
		}
	}
}

func feeTx(cap, tip uint64) *DynamicFeeTx {
	return &DynamicFeeTx{
		AccessListTx: AccessListTx{LegacyTx: LegacyTx{GasPrice: uint256.NewInt(cap)}},
		GasTipCap:    uint256.NewInt(tip),
	}
}

func TestEffectiveGasPrice(t *testing.T) {
	tests := []struct {
		name    string
		inner   TxData
		baseFee *uint256.Int
		want    uint64
	}{
		{"legacy no base fee", &LegacyTx{GasPrice: uint256.NewInt(50)}, nil, 50},
		{"legacy ignores base fee", &LegacyTx{GasPrice: uint256.NewInt(50)}, uint256.NewInt(2), 50},
		{"access list ignores base fee", &AccessListTx{LegacyTx: LegacyTx{GasPrice: uint256.NewInt(50)}}, uint256.NewInt(30), 50},
		{"fee market pays tip plus base", feeTx(100, 10), uint256.NewInt(2), 12},
		{"fee market clamped to cap", feeTx(100, 10), uint256.NewInt(95), 100},
		{"fee market no base fee pays bare tip", feeTx(100, 10), nil, 10},
		{"fee market clamped with no base fee", feeTx(100, 200), nil, 100},
	}
	for _, tt := range tests {
		tx := NewTx(tt.inner)
		if got := tx.EffectiveGasPrice(tt.baseFee); !got.Eq(uint256.NewInt(tt.want)) {
			t.Errorf("%s: got %v, want %d", tt.name, got, tt.want)
		}
	}

	// A tip plus base fee sum beyond 256 bits saturates to the cap.
	saturating := feeTx(100, 0)
	saturating.GasTipCap.SetAllOne()
	tx := NewTx(saturating)
	if got := tx.EffectiveGasPrice(uint256.NewInt(1)); !got.Eq(uint256.NewInt(100)) {
		t.Errorf("overflowing sum: got %v, want 100", got)
	}
}

func TestEffectiveGasTip(t *testing.T) {
	tests := []struct {
		name    string
		inner   TxData
		baseFee *uint256.Int
		want    uint64
	}{
		{"fee market full tip", feeTx(100, 10), uint256.NewInt(2), 10},
		{"fee market squeezed tip", feeTx(100, 10), uint256.NewInt(95), 5},
		{"fee market no base fee keeps bare tip", feeTx(100, 10), nil, 10},
		{"legacy margin over base", &LegacyTx{GasPrice: uint256.NewInt(50)}, uint256.NewInt(20), 30},
		{"legacy below base floors at zero", &LegacyTx{GasPrice: uint256.NewInt(50)}, uint256.NewInt(60), 0},
		{"legacy no base fee", &LegacyTx{GasPrice: uint256.NewInt(50)}, nil, 50},
	}
	for _, tt := range tests {
		tx := NewTx(tt.inner)
		if got := tx.EffectiveGasTip(tt.baseFee); !got.Eq(uint256.NewInt(tt.want)) {
			t.Errorf("%s: got %v, want %d", tt.name, got, tt.want)
		}
	}
}

func TestHasZeroGasPrice(t *testing.T) {
	tests := []struct {
		name  string
		inner TxData
		want  bool
	}{
		{"legacy zero", &LegacyTx{}, true},
		{"legacy priced", &LegacyTx{GasPrice: uint256.NewInt(1)}, false},
		{"access list zero", &AccessListTx{}, true},
		{"fee market zero", feeTx(0, 0), true},
		{"fee market tip only", feeTx(0, 1), false},
		{"fee market cap only", feeTx(1, 0), false},
	}
	for _, tt := range tests {
		if got := NewTx(tt.inner).HasZeroGasPrice(); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
