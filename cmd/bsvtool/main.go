// bsvtool is a small command line utility over the library: it decodes raw
// transactions, disassembles scripts, and runs a self-check spend through
// the script engine.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bitfold/bsv/pkg/contract"
	"github.com/bitfold/bsv/pkg/keys"
	"github.com/bitfold/bsv/pkg/script"
	"github.com/bitfold/bsv/pkg/wire"
)

var log = logrus.New()

func main() {
	viper.SetEnvPrefix("bsvtool")
	viper.AutomaticEnv()
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	lvl, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	log.SetLevel(lvl)
	if viper.GetString("log_format") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "decode":
		err = cmdDecode(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "num":
		err = cmdNum(os.Args[2:])
	case "selfcheck":
		err = cmdSelfCheck()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bsvtool <command> [args]

commands:
  decode <txhex>       decode a raw transaction
  disasm <scripthex>   disassemble a script
  num <hex>            interpret bytes as script and transaction-field numbers
  selfcheck            simulate a pay-to-public-key-hash spend

environment:
  BSVTOOL_LOG_LEVEL    trace|debug|info|warn|error (default info)
  BSVTOOL_LOG_FORMAT   text|json (default text)
`)
}

func cmdDecode(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("decode: want exactly one hex argument")
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	tx, rest, err := wire.NewTxFromBytes(raw)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(rest) != 0 {
		log.WithField("bytes", len(rest)).Warn("trailing bytes after transaction")
	}

	fmt.Printf("txid:     %s\n", tx.TxID())
	fmt.Printf("version:  %d\n", tx.Version)
	fmt.Printf("locktime: %d\n", tx.LockTime)
	fmt.Printf("coinbase: %v\n", tx.IsCoinbase())
	for i, ti := range tx.TxIn {
		fmt.Printf("in  %3d:  %s seq=%d\n", i, ti.PreviousOutPoint, ti.Sequence)
		if s, err := script.Parse(ti.SignatureScript); err == nil {
			fmt.Printf("          %s\n", s)
		} else {
			fmt.Printf("          <unparseable: %x>\n", ti.SignatureScript)
		}
	}
	for i, to := range tx.TxOut {
		fmt.Printf("out %3d:  %d satoshis\n", i, to.Value)
		if s, err := script.Parse(to.PkScript); err == nil {
			fmt.Printf("          %s\n", s)
		} else {
			fmt.Printf("          <unparseable: %x>\n", to.PkScript)
		}
	}
	return nil
}

func cmdDisasm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("disasm: want exactly one hex argument")
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("disasm: %w", err)
	}
	s, err := script.Parse(raw)
	if err != nil {
		return fmt.Errorf("disasm: %w", err)
	}
	fmt.Println(s.String())
	return nil
}

func cmdNum(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("num: want exactly one hex argument")
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("num: %w", err)
	}

	// Stack numbers carry a sign bit in the final byte; fixed-width
	// transaction fields are plain unsigned little endian. Show both
	// readings since a raw byte string does not say which it is.
	if signed, err := script.MakeNum(raw, 8); err == nil {
		fmt.Printf("scriptnum: %d\n", signed)
	} else {
		fmt.Printf("scriptnum: %v\n", err)
	}
	if unsigned, err := script.UnsignedNum(raw); err == nil {
		fmt.Printf("unsigned:  %d\n", unsigned)
	} else {
		fmt.Printf("unsigned:  %v\n", err)
	}
	fmt.Printf("minimal:   %x\n", script.MinimallyEncode(raw))
	return nil
}

func cmdSelfCheck() error {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return err
	}

	tmpl := contract.NewP2PKH(priv.PubKey())
	tmpl.PrivKey = priv
	res, err := contract.Simulate(tmpl)
	if err != nil {
		return err
	}
	if !res.Valid {
		log.WithError(res.Err).Error("self-check spend did not validate")
		return res.Err
	}
	log.WithFields(logrus.Fields{
		"txid":  res.Tx.TxID(),
		"stack": len(res.Stack),
	}).Info("self-check spend validated")
	return nil
}
