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

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// InvalidRecoveryID is the standardized V reported for a legacy v value that
// maps to neither recovery id. Signatures carrying it cannot be recovered.
const InvalidRecoveryID = byte(4)

// SignatureComponents holds the three scalars of a transaction signature. V is
// the standardized recovery id (0 or 1), never the chain-folded legacy form.
// The components are embedded by value and never shared between transactions.
type SignatureComponents struct {
	V byte
	R uint256.Int
	S uint256.Int
}

// IsZero reports whether both curve points are zero. A zero r and s is the
// marker for a transaction that has not been signed.
func (sc *SignatureComponents) IsZero() bool {
	return sc.R.IsZero() && sc.S.IsZero()
}

// signatureFromBytes converts a 65-byte r || s || v recoverable signature, as
// produced by the signing collaborator, into its component scalars. The
// all-zero signature is the signer's "no signature produced" sentinel and is
// rejected like any other invalid input.
func signatureFromBytes(sig []byte) (SignatureComponents, error) {
	if len(sig) != crypto.SignatureLength {
		return SignatureComponents{}, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSig, crypto.SignatureLength, len(sig))
	}
	if v := sig[64]; v > 1 {
		return SignatureComponents{}, fmt.Errorf("%w: recovery id %d out of range", ErrInvalidSig, v)
	}
	var sc SignatureComponents
	sc.V = sig[64]
	sc.R.SetBytes(sig[:32])
	sc.S.SetBytes(sig[32:64])
	if sc.IsZero() {
		return SignatureComponents{}, fmt.Errorf("%w: null signature", ErrInvalidSig)
	}
	return sc, nil
}

// addReplayProtection folds a standardized recovery id into the legacy wire v.
// With a chain id the result follows the replay-protected scheme
// v = recovery + 35 + 2*chainID, without one the original v = recovery + 27.
func addReplayProtection(standardV byte, chainID *uint64) uint64 {
	if chainID != nil {
		return uint64(standardV) + 35 + *chainID*2
	}
	return uint64(standardV) + 27
}

// extractStandardV is the inverse of addReplayProtection. Values outside both
// the plain and the replay-protected range yield InvalidRecoveryID.
func extractStandardV(v uint64) byte {
	switch {
	case v == 27:
		return 0
	case v == 28:
		return 1
	case v >= 35:
		return byte((v - 1) % 2)
	default:
		return InvalidRecoveryID
	}
}

// deriveChainID recovers the chain id folded into a legacy wire v, or nil for
// pre-protection values.
func deriveChainID(v uint64) *uint64 {
	if v >= 35 {
		id := (v - 35) / 2
		return &id
	}
	return nil
}
