// Command rsacrack runs the attack library against one or more RSA
// keys/ciphertexts, per spec §6's CLI surface.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/internal/xlog"
	"github.com/rsacrack/rsacrack/pkg/attacks"
	"github.com/rsacrack/rsacrack/pkg/finalize"
	"github.com/rsacrack/rsacrack/pkg/keycodec"
	"github.com/rsacrack/rsacrack/pkg/orchestrator"
	"github.com/rsacrack/rsacrack/pkg/rawinput"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// bigIntList is a repeatable flag.Value collecting multiple -c/-n/--key
// occurrences, since flag has no native repeated-flag type.
type bigIntList struct{ values []string }

func (l *bigIntList) String() string   { return strings.Join(l.values, ",") }
func (l *bigIntList) Set(v string) error {
	l.values = append(l.values, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rsacrack", flag.ContinueOnError)

	var (
		nFlag        bigIntList
		cFlag        bigIntList
		eFlag        = fs.Int64("e", 65537, "public exponent")
		keyFiles     bigIntList
		rawFile      = fs.String("raw", "", "path to a raw key=value parameter file")
		sumPQ        = fs.String("sum-pq", "", "leaked p+q")
		diffPQ       = fs.String("diff-pq", "", "leaked p-q")
		attackList   = fs.String("attack", "", "comma-separated attack names to run exclusively")
		excludeList  = fs.String("exclude", "", "comma-separated attack names to skip")
		list         = fs.Bool("list", false, "list every known attack name and exit")
		threads      = fs.Int("threads", 0, "worker thread count (0 = hardware parallelism)")
		dlog         = fs.Bool("dlog", false, "enable discrete_log_cipher")
		showInputs   = fs.Bool("showinputs", false, "print the resolved Parameters before running any attack")
		exportPEM    = fs.String("export", "", "write the recovered private key to this PEM path")
		addPassword  = fs.String("addpassword", "", "passphrase to encrypt the exported PEM with")
		jsonLog      = fs.Bool("json", false, "emit machine-readable log lines instead of console output")
		outFile      = fs.String("out", "", "write recovered plaintext(s) to this path instead of stdout")
	)
	fs.Var(&nFlag, "n", "modulus (repeatable for multi-key mode)")
	fs.Var(&cFlag, "c", "ciphertext (repeatable)")
	fs.Var(&keyFiles, "key", "path to a PEM/OpenSSH key file (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := xlog.New(zerolog.InfoLevel, os.Stderr, *jsonLog)

	if *list {
		for name := range attacks.ByName(attacks.Options{}) {
			fmt.Println(name)
		}
		return 0
	}

	p, err := buildParameters(nFlag, cFlag, *eFlag, keyFiles, *rawFile, *sumPQ, *diffPQ)
	if err != nil {
		log.Error().Err(err).Msg("failed to build parameters")
		return 1
	}

	if *showInputs {
		fmt.Println(p.String())
	}

	opts := attacks.Options{DiscreteLog: *dlog}
	var selected []string
	if *attackList != "" {
		selected = strings.Split(*attackList, ",")
	}
	pool, err := attacks.Resolve(coalesce(selected, attackNames(opts)), opts)
	if err != nil {
		log.Error().Err(err).Msg("invalid attack selection")
		return 1
	}
	cfg := orchestrator.Config{Threads: *threads, Prog: nil}
	if *attackList != "" {
		cfg.Include = toSet(strings.Split(*attackList, ","))
	}
	if *excludeList != "" {
		cfg.Exclude = toSet(strings.Split(*excludeList, ","))
	}

	report := orchestrator.Run(context.Background(), p, pool, cfg)
	if !report.Found {
		log.Warn().Msg("no attack produced a solution")
		return 1
	}
	log.Info().Str("attack", report.WinningAttack).Msg("solution found")

	res, err := finalize.Close(report.Params)
	if err != nil {
		log.Error().Err(err).Msg("finalization failed")
		return 1
	}

	if *exportPEM != "" {
		pemBytes, err := keycodec.ExportPrivatePEM(res.Params, []byte(*addPassword))
		if err != nil {
			log.Error().Err(err).Msg("export failed")
			return 1
		}
		if err := os.WriteFile(*exportPEM, pemBytes, 0o600); err != nil {
			log.Error().Err(err).Msg("writing exported key failed")
			return 1
		}
	}

	writeResults(res, *outFile)
	return 0
}

func buildParameters(nFlag, cFlag bigIntList, e int64, keyFiles bigIntList, rawFile, sumPQ, diffPQ string) (*rsaparams.Parameters, error) {
	p := rsaparams.New()
	if e != 65537 {
		p.E = big.NewInt(e)
	}

	for _, n := range nFlag.values {
		v, err := bignum.ParseInt(n)
		if err != nil {
			return nil, err
		}
		if p.N == nil {
			p.N = v
		} else {
			p.Keys = append(p.Keys, rsaparams.KeyEntry{N: v})
		}
	}
	for _, c := range cFlag.values {
		v, err := bignum.ParseInt(c)
		if err != nil {
			return nil, err
		}
		p.C = append(p.C, v)
	}
	for _, path := range keyFiles.values {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		loaded, err := keycodec.LoadPEM(data)
		if err != nil {
			loaded, err = keycodec.LoadOpenSSH(data, nil)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
		}
		p.Merge(loaded)
	}
	if rawFile != "" {
		f, err := os.Open(rawFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		loaded, err := rawinput.Parse(f)
		if err != nil {
			return nil, err
		}
		p.Merge(loaded)
	}
	if sumPQ != "" {
		v, err := bignum.ParseInt(sumPQ)
		if err != nil {
			return nil, err
		}
		p.SumPQ = v
	}
	if diffPQ != "" {
		v, err := bignum.ParseInt(diffPQ)
		if err != nil {
			return nil, err
		}
		p.DiffPQ = v
	}
	return p, nil
}

func writeResults(res *finalize.Result, outFile string) {
	var b strings.Builder
	for _, pt := range res.Plaintexts {
		if pt.Printable {
			fmt.Fprintf(&b, "plaintext[%d] = %q\n", pt.Index, string(pt.Bytes))
		} else {
			fmt.Fprintf(&b, "plaintext[%d] (hex) = %s\n", pt.Index, hex.EncodeToString(pt.Bytes))
		}
	}
	if outFile != "" {
		_ = os.WriteFile(outFile, []byte(b.String()), 0o600)
		return
	}
	fmt.Print(b.String())
}

func attackNames(opts attacks.Options) []string {
	var names []string
	for name := range attacks.ByName(opts) {
		names = append(names, name)
	}
	return names
}

func coalesce(selected, all []string) []string {
	if len(selected) > 0 {
		return selected
	}
	return all
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.TrimSpace(n)] = true
	}
	return out
}
