package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/types"
)

func result(chain, addr string, bal, price int64) types.Result {
	return types.Result{
		Chain:    chain,
		Address:  addr,
		Balance:  decimal.NewFromInt(bal),
		PriceUSD: decimal.NewFromInt(price),
	}
}

func TestRecordConcurrent(t *testing.T) {
	s := New(WindowDefault)

	const workers, records = 8, 250

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < records; i++ {
				s.Record(result(fmt.Sprintf("C%d", w), fmt.Sprintf("a%d", i), int64(i%3), 1))
			}
		}(w)
	}

	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, uint64(workers*records), snap.Checked)
	assert.Len(t, snap.Recent, WindowDefault)

	positive := 0

	for i := 0; i < records; i++ {
		if i%3 != 0 {
			positive++
		}
	}

	profits := s.Profits()
	assert.Len(t, profits, workers*positive)

	for _, p := range profits {
		assert.True(t, p.ValueUSD().IsPositive())
	}
}

func TestRecentWindow(t *testing.T) {
	s := New(3)

	assert.Empty(t, s.Snapshot().Recent)

	for i := 0; i < 5; i++ {
		s.Record(result("BTC", fmt.Sprintf("a%d", i), 0, 1))

		snap := s.Snapshot()
		assert.LessOrEqual(t, len(snap.Recent), 3)
		assert.Equal(t, fmt.Sprintf("a%d", i), snap.Recent[len(snap.Recent)-1].Address, "newest last")
	}

	snap := s.Snapshot()
	require.Len(t, snap.Recent, 3)
	assert.Equal(t, "a2", snap.Recent[0].Address)
	assert.Equal(t, "a3", snap.Recent[1].Address)
	assert.Equal(t, "a4", snap.Recent[2].Address)
}

func TestBest(t *testing.T) {
	s := New(0)

	_, ok := s.Best()
	assert.False(t, ok)
	assert.Nil(t, s.Snapshot().Best)

	s.Record(result("BTC", "zero", 0, 50000))
	_, ok = s.Best()
	assert.False(t, ok, "zero value results are not profits")

	s.Record(result("ETH", "first", 2, 100))
	s.Record(result("SOL", "tie", 1, 200))
	s.Record(result("TRX", "small", 1, 1))

	b, ok := s.Best()
	require.True(t, ok)
	assert.Equal(t, "first", b.Address, "ties keep the first recorded")

	s.Record(result("BTC", "max", 1, 50000))

	b, _ = s.Best()
	assert.Equal(t, "max", b.Address)
	assert.Len(t, s.Profits(), 4)
	assert.Equal(t, uint64(5), s.Checked())
}

func TestStop(t *testing.T) {
	s := New(WindowDefault)

	assert.False(t, s.ShouldStop())

	select {
	case <-s.Done():
		t.Fatal("done before stop")
	default:
	}

	s.Stop()
	s.Stop()

	assert.True(t, s.ShouldStop())
	assert.True(t, s.Snapshot().Stopped)

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed after stop")
	}

	// recording after stop is harmless and stop stays set
	s.Record(result("BTC", "late", 1, 1))
	assert.True(t, s.ShouldStop())
}

func TestStopConcurrent(t *testing.T) {
	s := New(WindowDefault)

	const n = 32

	start := make(chan struct{})

	var wg sync.WaitGroup

	regressed := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			<-start
			s.Stop()
		}()

		go func(id int) {
			defer wg.Done()
			<-start

			seen := false

			for j := 0; j < 1000; j++ {
				stopped := s.ShouldStop()
				if seen && !stopped {
					regressed <- id

					return
				}

				seen = seen || stopped
			}
		}(i)
	}

	close(start)
	wg.Wait()
	close(regressed)

	assert.Empty(t, regressed, "ShouldStop went back to false")
	assert.True(t, s.ShouldStop())

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed after concurrent stops")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(2)
	s.Record(result("BTC", "a", 1, 1))

	snap := s.Snapshot()
	snap.Recent[0].Address = "changed"
	snap.Best.Address = "changed"

	again := s.Snapshot()
	assert.Equal(t, "a", again.Recent[0].Address)
	assert.Equal(t, "a", again.Best.Address)

	p := s.Profits()
	p[0].Address = "changed"
	assert.Equal(t, "a", s.Profits()[0].Address)
}
