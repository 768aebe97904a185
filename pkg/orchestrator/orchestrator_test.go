package orchestrator_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/attacks"
	"github.com/rsacrack/rsacrack/pkg/orchestrator"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func TestRunFindsFastSolution(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)
	p.SumPQ = big.NewInt(61 + 53)

	all := attacks.All(attacks.Options{})
	report := orchestrator.Run(context.Background(), p, all, orchestrator.Config{})

	require.True(t, report.Found)
	assert.Equal(t, big.NewInt(61*53), report.Params.N)
}

func TestRunHonorsIncludeSelection(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)
	p.SumPQ = big.NewInt(61 + 53)

	all := attacks.All(attacks.Options{})
	report := orchestrator.Run(context.Background(), p, all, orchestrator.Config{
		Include: map[string]bool{"fermat": true},
	})

	sumPQ, sawSumPQ := report.Outcomes["sum_pq"]
	require.True(t, sawSumPQ)
	assert.True(t, sumPQ.Skipped)
	assert.Nil(t, sumPQ.Solution)
}

func TestRunReturnsUnsolvedWhenNothingApplies(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(997 * 991)

	report := orchestrator.Run(context.Background(), p, []attack.Attack(nil), orchestrator.Config{})
	assert.False(t, report.Found)
}
