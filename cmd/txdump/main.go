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

// txdump is a command line tool that decodes and encodes canonical
// Ethereum transaction bytes.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cita-cloud/ethtx/internal/debug"
	"github.com/cita-cloud/ethtx/internal/flags"
	"github.com/cita-cloud/ethtx/types"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	batchFlag = &cli.BoolFlag{
		Name:     "batch",
		Usage:    "Treat the input as an RLP list of transactions",
		Category: flags.TxCategory,
	}
	hashFlag = &cli.BoolFlag{
		Name:     "hash",
		Usage:    "Print the keccak hash of each canonical encoding",
		Category: flags.OutputCategory,
	}
	verboseFlag = &cli.BoolFlag{
		Name:     "verbose",
		Usage:    "Dump the decoded structures before the field listing",
		Category: flags.OutputCategory,
	}
)

var app = flags.NewApp("a decoder and encoder for canonical Ethereum transactions")

func init() {
	app.Action = decode
	app.Commands = []*cli.Command{
		decodeCommand,
		encodeCommand,
	}
	app.Flags = append([]cli.Flag{
		batchFlag,
		hashFlag,
		verboseFlag,
	}, debug.Flags...)

	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var decodeCommand = &cli.Command{
	Action:    decode,
	Name:      "decode",
	Usage:     "Decode canonical transaction bytes and print their fields",
	ArgsUsage: "<hexdata|file|->",
	Flags: []cli.Flag{
		batchFlag,
		hashFlag,
		verboseFlag,
	},
	Description: `
The decode command reads one canonical transaction, either a bare legacy list or a
type byte followed by its payload, and prints every field. The input is a 0x hex
string, the path of a file holding hex text or raw binary, or "-" for standard
input. With --batch the input is an RLP list holding any mix of transactions.`,
}

// decode is the main entry point into the system if no special subcommand is
// run. It reads canonical transaction bytes from the argument, a file or
// standard input and prints the decoded fields.
func decode(ctx *cli.Context) error {
	if ctx.Args().Len() > 1 {
		return fmt.Errorf("too many arguments: %q", ctx.Args().Slice()[1])
	}
	if ctx.Args().First() == "" && isatty.IsTerminal(os.Stdin.Fd()) {
		return cli.ShowAppHelp(ctx)
	}
	input, err := readInput(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(batchFlag.Name) {
		txs, err := types.DecodeTransactions(input)
		if err != nil {
			return err
		}
		log.Info("Decoded transaction batch", "count", len(txs), "size", len(input))
		for i, tx := range txs {
			fmt.Printf("Transaction #%d:\n", i)
			printTransaction(ctx, tx)
			fmt.Println()
		}
		return nil
	}
	tx, err := types.DecodeTransaction(input)
	if err != nil {
		return err
	}
	printTransaction(ctx, tx)
	return nil
}

// readInput resolves the positional argument into raw transaction bytes.
func readInput(ctx *cli.Context) ([]byte, error) {
	arg := ctx.Args().First()
	switch {
	case arg == "" || arg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return parseData(data)
	case strings.HasPrefix(arg, "0x"):
		return hexutil.Decode(arg)
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return parseData(data)
	}
}

// parseData interprets file or pipe contents, accepting hex text with or
// without the 0x prefix as well as raw binary.
func parseData(data []byte) ([]byte, error) {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "0x") {
		return hexutil.Decode(text)
	}
	if b, err := hex.DecodeString(text); err == nil {
		return b, nil
	}
	return data, nil
}

func printTransaction(ctx *cli.Context, tx *types.UnverifiedTransaction) {
	if ctx.Bool(verboseFlag.Name) {
		spew.Dump(tx)
	}
	fmt.Println("Type:", tx.Type())
	if id := tx.ChainID(); id != nil {
		fmt.Println("ChainID:", *id)
	} else {
		fmt.Println("ChainID: (none)")
	}
	fmt.Println("Nonce:", tx.Nonce())
	if tx.Type() == types.DynamicFeeTxType {
		fmt.Println("GasTipCap:", hexutil.EncodeBig(tx.GasTipCap().ToBig()))
		fmt.Println("GasFeeCap:", hexutil.EncodeBig(tx.GasPrice().ToBig()))
	} else {
		fmt.Println("GasPrice:", hexutil.EncodeBig(tx.GasPrice().ToBig()))
	}
	fmt.Println("Gas:", tx.Gas())
	if to := tx.To(); to != nil {
		fmt.Println("To:", to.Hex())
	} else {
		fmt.Println("To: (contract creation)")
	}
	fmt.Println("Value:", hexutil.EncodeBig(tx.Value().ToBig()))
	fmt.Println("Data:", hexutil.Encode(tx.Data()))
	if tx.Type() != types.LegacyTxType {
		list := tx.AccessList()
		fmt.Printf("AccessList: %d entries, %d storage keys\n", len(list), list.StorageKeys())
		for _, tuple := range list {
			fmt.Println("  Address:", tuple.Address.Hex())
			for _, key := range tuple.StorageKeys {
				fmt.Println("    Key:", key.Hex())
			}
		}
	}
	if tx.IsUnsigned() {
		fmt.Println("Signature: (unsigned)")
	} else {
		sig := tx.Signature()
		fmt.Println("V:", tx.V())
		fmt.Println("R:", hexutil.EncodeBig(sig.R.ToBig()))
		fmt.Println("S:", hexutil.EncodeBig(sig.S.ToBig()))
		fmt.Println("Protected:", tx.Protected())
	}
	if ctx.Bool(hashFlag.Name) {
		fmt.Println("Hash:", tx.ComputeHash().Hash().Hex())
	}
}
