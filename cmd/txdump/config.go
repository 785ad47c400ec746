// Copyright 2025 The ethtx Authors
// This file is part of ethtx.
//
// ethtx is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ethtx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ethtx. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/cita-cloud/ethtx/internal/flags"
	"github.com/cita-cloud/ethtx/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML transaction description file",
		Category: flags.TxCategory,
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:     "chainid",
		Usage:    "Chain id folded into the encoding, overriding the file",
		Category: flags.TxCategory,
	}
	nonceFlag = &cli.Uint64Flag{
		Name:     "nonce",
		Usage:    "Nonce to encode, overriding the file",
		Category: flags.TxCategory,
	}
	valueFlag = &flags.BigFlag{
		Name:     "value",
		Usage:    "Value in wei to encode, overriding the file",
		Category: flags.TxCategory,
	}
	gasPriceFlag = &flags.BigFlag{
		Name:     "gasprice",
		Usage:    "Gas price (fee ceiling for dynamic fee transactions), overriding the file",
		Category: flags.TxCategory,
	}
	gasTipFlag = &flags.BigFlag{
		Name:     "gastip",
		Usage:    "Max priority fee per gas, overriding the file",
		Category: flags.TxCategory,
	}
)

var encodeCommand = &cli.Command{
	Action: encode,
	Name:   "encode",
	Usage:  "Encode a transaction described in a TOML file",
	Flags: []cli.Flag{
		configFileFlag,
		chainIDFlag,
		nonceFlag,
		valueFlag,
		gasPriceFlag,
		gasTipFlag,
		hashFlag,
	},
	Description: `
The encode command builds a transaction from a TOML description and prints its
canonical hex encoding. Scalar fields take 0x-prefixed hex quantities; flags
override the file and also accept decimal. When V, R and S are given the signed
form is produced and round-tripped through the decoder before printing, otherwise
the unsigned form is produced together with its signing hash.`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// txConfig describes one transaction in a TOML file. ChainID, V, R and S are
// optional; the rest default to their zero values.
type txConfig struct {
	Type       uint64
	ChainID    *uint64
	Nonce      uint64
	GasPrice   *hexutil.Big
	GasTipCap  *hexutil.Big `toml:",omitempty"`
	Gas        uint64
	To         *common.Address `toml:",omitempty"`
	Value      *hexutil.Big
	Data       hexutil.Bytes
	AccessList types.AccessList `toml:",omitempty"`
	V          *uint8           `toml:",omitempty"`
	R          *hexutil.Big     `toml:",omitempty"`
	S          *hexutil.Big     `toml:",omitempty"`
}

func loadConfig(file string, cfg *txConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// applyFlags folds the command line overrides into the file config.
func applyFlags(ctx *cli.Context, cfg *txConfig) {
	if ctx.IsSet(chainIDFlag.Name) {
		id := ctx.Uint64(chainIDFlag.Name)
		cfg.ChainID = &id
	}
	if ctx.IsSet(nonceFlag.Name) {
		cfg.Nonce = ctx.Uint64(nonceFlag.Name)
	}
	if ctx.IsSet(valueFlag.Name) {
		cfg.Value = (*hexutil.Big)(flags.GlobalBig(ctx, valueFlag.Name))
	}
	if ctx.IsSet(gasPriceFlag.Name) {
		cfg.GasPrice = (*hexutil.Big)(flags.GlobalBig(ctx, gasPriceFlag.Name))
	}
	if ctx.IsSet(gasTipFlag.Name) {
		cfg.GasTipCap = (*hexutil.Big)(flags.GlobalBig(ctx, gasTipFlag.Name))
	}
}

// makeTx builds the transaction body described by the config.
func makeTx(cfg *txConfig) (*types.TypedTransaction, error) {
	legacy := types.LegacyTx{
		Nonce:    cfg.Nonce,
		GasPrice: bigToU256(cfg.GasPrice),
		Gas:      cfg.Gas,
		To:       cfg.To,
		Value:    bigToU256(cfg.Value),
		Data:     cfg.Data,
	}
	var inner types.TxData
	switch cfg.Type {
	case types.LegacyTxType:
		if cfg.GasTipCap != nil || len(cfg.AccessList) > 0 {
			return nil, errors.New("legacy transactions carry no access list or tip")
		}
		inner = &legacy
	case types.AccessListTxType:
		if cfg.GasTipCap != nil {
			return nil, errors.New("access list transactions carry no tip")
		}
		inner = &types.AccessListTx{LegacyTx: legacy, AccessList: cfg.AccessList}
	case types.DynamicFeeTxType:
		inner = &types.DynamicFeeTx{
			AccessListTx: types.AccessListTx{LegacyTx: legacy, AccessList: cfg.AccessList},
			GasTipCap:    bigToU256(cfg.GasTipCap),
		}
	default:
		return nil, fmt.Errorf("unsupported transaction type %d", cfg.Type)
	}
	return types.NewTx(inner), nil
}

// bigToU256 converts an optional hex quantity into a scalar. The hexutil
// decoder already enforces the 256 bit range.
func bigToU256(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	return uint256.MustFromBig(b.ToInt())
}

// signatureBytes assembles the 65 byte r || s || v signature described by the
// config, or nil when the config describes an unsigned transaction.
func signatureBytes(cfg *txConfig) ([]byte, error) {
	if cfg.V == nil && cfg.R == nil && cfg.S == nil {
		return nil, nil
	}
	if cfg.V == nil || cfg.R == nil || cfg.S == nil {
		return nil, errors.New("incomplete signature: V, R and S must all be set")
	}
	r := uint256.MustFromBig(cfg.R.ToInt()).Bytes32()
	s := uint256.MustFromBig(cfg.S.ToInt()).Bytes32()
	sig := make([]byte, 0, 65)
	sig = append(sig, r[:]...)
	sig = append(sig, s[:]...)
	sig = append(sig, *cfg.V)
	return sig, nil
}

func encode(ctx *cli.Context) error {
	file := ctx.String(configFileFlag.Name)
	if file == "" {
		return errors.New("no transaction description: --config is required")
	}
	file = flags.ExpandPath(file)
	cfg := new(txConfig)
	if err := loadConfig(file, cfg); err != nil {
		return err
	}
	applyFlags(ctx, cfg)

	tx, err := makeTx(cfg)
	if err != nil {
		return err
	}
	sig, err := signatureBytes(cfg)
	if err != nil {
		return err
	}
	log.Info("Loaded transaction description", "file", file, "type", tx.Type(), "signed", sig != nil)

	if sig == nil {
		enc, err := tx.Encode(cfg.ChainID, nil)
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(enc))
		if ctx.Bool(hashFlag.Name) {
			fmt.Println("SigningHash:", tx.SigningHash(cfg.ChainID).Hex())
		}
		return nil
	}
	utx, err := tx.WithSignature(sig, cfg.ChainID)
	if err != nil {
		return err
	}
	enc, err := utx.MarshalBinary()
	if err != nil {
		return err
	}
	// Check that the bytes decode back before handing them out.
	if _, err := types.DecodeTransaction(enc); err != nil {
		return fmt.Errorf("encoding does not decode back: %v", err)
	}
	fmt.Println(hexutil.Encode(enc))
	if ctx.Bool(hashFlag.Name) {
		fmt.Println("Hash:", utx.ComputeHash().Hash().Hex())
	}
	return nil
}
