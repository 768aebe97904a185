package attack_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsacrack/rsacrack/pkg/attack"
)

func TestCancelStartsUnsignalled(t *testing.T) {
	c := attack.NewCancel()
	assert.False(t, c.Cancelled())
}

func TestCancelSignalIsIdempotent(t *testing.T) {
	c := attack.NewCancel()
	c.Signal()
	c.Signal()
	assert.True(t, c.Cancelled())
}

func TestCancelSignalConcurrentCallersDontPanic(t *testing.T) {
	c := attack.NewCancel()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Signal()
		}()
	}
	wg.Wait()
	assert.True(t, c.Cancelled())
}

func TestCancelDoneChannelClosesOnSignal(t *testing.T) {
	c := attack.NewCancel()
	select {
	case <-c.Done():
		t.Fatal("Done channel closed before Signal")
	default:
	}
	c.Signal()
	<-c.Done()
}

func TestSolutionEmpty(t *testing.T) {
	var s *attack.Solution
	assert.True(t, s.Empty())

	s = &attack.Solution{}
	assert.True(t, s.Empty())

	s = &attack.Solution{Plaintexts: [][]byte{[]byte("hi")}}
	assert.False(t, s.Empty())
}
