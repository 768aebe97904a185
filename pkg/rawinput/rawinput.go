// Package rawinput reads the "key = value" / "key: value" raw text
// format spec §4.4 and §6 describe for loose RSA parameter dumps,
// including the indexed multi-key form (n1=, n2=, c1=, c2=, ...).
package rawinput

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

var indexedKey = regexp.MustCompile(`^([a-zA-Z_]+?)(\d+)$`)

// Parse reads every "key = value" / "key: value" line from r, skipping
// blank lines and lines starting with '#', and lifts the result into a
// Parameters value. Indexed keys (n1, e1, c1, n2, e2, c2, ...) populate
// additional entries in Keys, per spec §4.4's raw-file indexed form.
func Parse(r io.Reader) (*rsaparams.Parameters, error) {
	primary := rsaparams.New()
	indexed := make(map[int]*rsaparams.KeyEntry)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := splitKV(line)
		if err != nil {
			return nil, fmt.Errorf("rawinput: line %d: %w", lineNo, err)
		}
		if m := indexedKey.FindStringSubmatch(key); m != nil {
			base, idx := m[1], m[2]
			n, _ := strconv.Atoi(idx)
			entry := indexed[n]
			if entry == nil {
				entry = &rsaparams.KeyEntry{}
				indexed[n] = entry
			}
			if err := assignIndexed(entry, base, value); err != nil {
				return nil, fmt.Errorf("rawinput: line %d: %w", lineNo, err)
			}
			continue
		}
		if err := assignPrimary(primary, key, value); err != nil {
			return nil, fmt.Errorf("rawinput: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var ids []int
	for id := range indexed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		primary.Keys = append(primary.Keys, *indexed[id])
	}
	return primary, nil
}

func splitKV(line string) (key, value string, err error) {
	sep := "="
	if !strings.Contains(line, "=") && strings.Contains(line, ":") {
		sep = ":"
	}
	parts := strings.SplitN(line, sep, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed line %q", line)
	}
	return strings.ToLower(strings.TrimSpace(parts[0])), strings.TrimSpace(parts[1]), nil
}

func assignPrimary(p *rsaparams.Parameters, key, value string) error {
	switch key {
	case "n", "modulus":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.N = v
	case "e", "exponent":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.E = v
	case "c", "ciphertext":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.C = append(p.C, v)
	case "p":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.P = v
	case "q":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.Q = v
	case "d", "privateexponent":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.D = v
	case "phi", "totient":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.Phi = v
	case "dp":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.DP = v
	case "dq":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.DQ = v
	case "qinv", "q_inv":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.QInv = v
	case "pinv", "p_inv":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.PInv = v
	case "sum_pq", "sumpq":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.SumPQ = v
	case "diff_pq", "diffpq":
		v, err := bignum.ParseInt(value)
		if err != nil {
			return err
		}
		p.DiffPQ = v
	default:
		return fmt.Errorf("unrecognized key %q", key)
	}
	return nil
}

func assignIndexed(k *rsaparams.KeyEntry, base, value string) error {
	v, err := bignum.ParseInt(value)
	if err != nil {
		return err
	}
	switch strings.ToLower(base) {
	case "n":
		k.N = v
	case "e":
		k.E = v
	case "c":
		k.C = append(k.C, v)
	default:
		return fmt.Errorf("unrecognized indexed key %q", base)
	}
	return nil
}
