package attacks_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/attacks"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func mustInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad literal: " + s)
	}
	return v
}

func TestSumPQRecoversFactors(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)
	p.SumPQ = big.NewInt(61 + 53)

	a := attacks.NewSumPQ()
	require.True(t, a.Requirements(p))
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.False(t, out.Solution.Empty())
}

func TestCubeRootRecoversPlaintext(t *testing.T) {
	m := big.NewInt(424242)
	e := big.NewInt(3)
	c := new(big.Int).Exp(m, e, nil)

	p := rsaparams.New()
	p.E = e
	p.C = []*big.Int{c}

	a := attacks.NewCubeRoot()
	require.True(t, a.Requirements(p))
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	require.Len(t, out.Solution.Plaintexts, 1)
	assert.Equal(t, m, new(big.Int).SetBytes(out.Solution.Plaintexts[0]))
}

func TestFermatRecoversCloseFactors(t *testing.T) {
	p1 := mustInt("10007")
	q1 := mustInt("10009")
	n := new(big.Int).Mul(p1, q1)

	p := rsaparams.New()
	p.N = n

	a := attacks.NewFermat()
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	prod := out.Solution.Factors.Product()
	assert.Equal(t, n, prod)
}

func TestKnownDFactorsN(t *testing.T) {
	p1, q1 := big.NewInt(61), big.NewInt(53)
	n := new(big.Int).Mul(p1, q1)
	phi := new(big.Int).Mul(big.NewInt(60), big.NewInt(52))
	e := big.NewInt(17)
	d := new(big.Int).ModInverse(e, phi)
	require.NotNil(t, d)

	p := rsaparams.New()
	p.N, p.E, p.D = n, e, d

	a := attacks.NewKnownD()
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.Equal(t, n, out.Solution.Factors.Product())
}

func TestCommonFactorAcrossModuli(t *testing.T) {
	shared := mustInt("10007")
	n1 := new(big.Int).Mul(shared, mustInt("10009"))
	n2 := new(big.Int).Mul(shared, mustInt("10037"))

	p := rsaparams.New()
	p.N = n1
	p.Keys = []rsaparams.KeyEntry{{N: n2}}

	a := attacks.NewCommonFactor()
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.True(t, containsFactor(out.Solution.Factors, shared))
}

func containsFactor(fs rsaparams.Factors, want *big.Int) bool {
	for _, f := range fs {
		if f.Prime.Cmp(want) == 0 {
			return true
		}
	}
	return false
}

func TestResolveRejectsUnknownNames(t *testing.T) {
	_, err := attacks.Resolve([]string{"small_prime", "not_a_real_attack"}, attacks.Options{})
	require.Error(t, err)
}

func TestResolveAcceptsKnownNames(t *testing.T) {
	got, err := attacks.Resolve([]string{"small_prime", "fermat"}, attacks.Options{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestComfactCnFindsSharedFactor(t *testing.T) {
	shared := mustInt("104729")
	n := new(big.Int).Mul(shared, mustInt("105943"))

	p := rsaparams.New()
	p.N = n
	p.C = []*big.Int{new(big.Int).Mul(shared, big.NewInt(7))}

	a := attacks.NewComfactCn()
	require.True(t, a.Requirements(p))
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.Equal(t, n, out.Solution.Factors.Product())
}

func TestComfactCnSkipsWhenNoCiphertextSharesFactor(t *testing.T) {
	n := new(big.Int).Mul(mustInt("104729"), mustInt("105943"))
	p := rsaparams.New()
	p.N = n
	p.C = []*big.Int{big.NewInt(12345)}

	a := attacks.NewComfactCn()
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	assert.True(t, out.Skipped)
}

func TestGaaRecoversFactorsFromKnownLowBits(t *testing.T) {
	pPrime := mustInt("122539608741316849829261726098688957114502463272691906657106165887494465656483627796660671278978213477051915433597161268345944097932917669169852614268434890176706523882967335716979529907163623313323845921267400475000574500531377847942396759927437400904034577111052905698000623411296101838403579267392100002539")
	qPrime := mustInt("207632566695348090325106198564354306872362493463538154841386314580707220972445801440409737589803024013035554181699335224061662229162879643933792870833231736875142501533422110427899095351781206012327937258761409973123340262144886588093314114536052456895922041585909651666335476791456709509341751911472100003017")
	n := new(big.Int).Mul(pPrime, qPrime)

	p := rsaparams.New()
	p.N = n
	p.PartialP = &rsaparams.PartialPrime{Known: big.NewInt(2539), Orient: rsaparams.OrientLSBKnown}
	p.PartialQ = &rsaparams.PartialPrime{Known: big.NewInt(3017), Orient: rsaparams.OrientLSBKnown}

	a := attacks.NewGaa()
	require.True(t, a.Requirements(p))
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.Equal(t, n, out.Solution.Factors.Product())
}

func TestGaaRequiresLSBOrientedPartialPrimes(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(15)
	p.PartialP = &rsaparams.PartialPrime{Known: big.NewInt(3), Orient: rsaparams.OrientMSBKnown}
	p.PartialQ = &rsaparams.PartialPrime{Known: big.NewInt(5), Orient: rsaparams.OrientLSBKnown}

	a := attacks.NewGaa()
	assert.False(t, a.Requirements(p))
}

func TestECMFactorsSmallComposite(t *testing.T) {
	p1 := mustInt("104729")
	q1 := mustInt("105943")
	n := new(big.Int).Mul(p1, q1)

	p := rsaparams.New()
	p.N = n

	a := attacks.NewECM()
	require.True(t, a.Requirements(p))
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out.Solution)
	assert.Equal(t, n, out.Solution.Factors.Product())
}

func TestFactorDBCachesLookupByModulus(t *testing.T) {
	calls := 0
	lookup := func(n *big.Int) ([]*big.Int, error) {
		calls++
		return []*big.Int{big.NewInt(61), big.NewInt(53)}, nil
	}

	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)

	a := attacks.NewFactorDB(lookup)
	require.True(t, a.Requirements(p))
	out1 := a.Run(p, attack.NewCancel(), progress.NullSink{})
	out2 := a.Run(p, attack.NewCancel(), progress.NullSink{})
	require.NotNil(t, out1.Solution)
	require.NotNil(t, out2.Solution)
	assert.Equal(t, 1, calls)
}

func TestPartialPrimeBruteforceRejectsOversizedSpace(t *testing.T) {
	p := rsaparams.New()
	p.N = new(big.Int).Lsh(big.NewInt(1), 2048)
	p.PartialP = &rsaparams.PartialPrime{Radix: 16, WildcardCount: 40, Orient: rsaparams.OrientMSBKnown, Known: big.NewInt(0xAB)}

	a := attacks.NewPartialPrimeBruteforce()
	out := a.Run(p, attack.NewCancel(), progress.NullSink{})
	assert.True(t, out.Skipped)
	assert.Contains(t, out.Reason, "exceeds 2^28")
}
