package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStatsSource struct {
	entries int
	bytes   int64
}

func (f fakeStatsSource) Entries() int { return f.entries }
func (f fakeStatsSource) Bytes() int64 { return f.bytes }

func TestCollectorPublishesSourceSizes(t *testing.T) {
	c := NewCollector(map[string]StatsSource{
		"test_source": fakeStatsSource{entries: 7, bytes: 4096},
	})

	c.Start(10 * time.Millisecond)
	defer c.Stop()

	deadline := time.After(time.Second)
	for {
		if testutil.ToFloat64(CacheSizeEntries.WithLabelValues("test_source")) == 7 &&
			testutil.ToFloat64(CacheSizeBytes.WithLabelValues("test_source")) == 4096 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("collector never published gauge values")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCollectorStopHaltsFurtherUpdates(t *testing.T) {
	src := &mutableStatsSource{entries: 1}
	c := NewCollector(map[string]StatsSource{"stoppable": src})

	c.Start(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	time.Sleep(20 * time.Millisecond)

	src.entries = 99
	time.Sleep(30 * time.Millisecond)

	if got := testutil.ToFloat64(CacheSizeEntries.WithLabelValues("stoppable")); got == 99 {
		t.Fatalf("collector kept polling after Stop, got %v", got)
	}
}

type mutableStatsSource struct{ entries int }

func (m *mutableStatsSource) Entries() int { return m.entries }
func (m *mutableStatsSource) Bytes() int64 { return 0 }
