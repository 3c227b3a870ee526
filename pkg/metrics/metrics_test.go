package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTimerObservesStorageRootPublishDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration(StorageRootPublishDuration)

	if got := testutil.CollectAndCount(StorageRootPublishDuration); got == 0 {
		t.Fatal("ObserveDuration did not record a sample on StorageRootPublishDuration")
	}
	if timer.Duration() < 5*time.Millisecond {
		t.Errorf("Duration() = %v, want >= 5ms", timer.Duration())
	}
}

func TestTimerObservesTxnCommitDurationByOutcome(t *testing.T) {
	before := testutil.ToFloat64(TxnCommitsTotal.WithLabelValues("committed"))

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration(TxnCommitDuration)
	TxnCommitsTotal.WithLabelValues("committed").Inc()

	if got := testutil.ToFloat64(TxnCommitsTotal.WithLabelValues("committed")); got != before+1 {
		t.Errorf("TxnCommitsTotal[committed] = %v, want %v", got, before+1)
	}
	if got := testutil.CollectAndCount(TxnCommitDuration); got == 0 {
		t.Fatal("ObserveDuration did not record a sample on TxnCommitDuration")
	}
}

func TestTimerObservesQueryPlanExecDurationByPlanKind(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDurationVec(QueryPlanExecDuration, "scan")

	if got := testutil.CollectAndCount(QueryPlanExecDuration.WithLabelValues("scan")); got == 0 {
		t.Fatal("ObserveDurationVec did not record a sample for plan=scan")
	}
}

func TestCacheHitsAndMissesTrackByQueueAndName(t *testing.T) {
	before := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("object", "protected"))

	CacheHitsTotal.WithLabelValues("object", "protected").Inc()
	CacheMissesTotal.WithLabelValues("object").Inc()

	if got := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("object", "protected")); got != before+1 {
		t.Errorf("CacheHitsTotal[object,protected] = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("object")); got < 1 {
		t.Errorf("CacheMissesTotal[object] = %v, want >= 1", got)
	}
}

func TestTimerDurationIsMonotonic(t *testing.T) {
	timer := NewTimer()

	time.Sleep(10 * time.Millisecond)
	first := timer.Duration()

	time.Sleep(10 * time.Millisecond)
	second := timer.Duration()

	if second <= first {
		t.Errorf("Duration should increase across calls: first=%v, second=%v", first, second)
	}
}

func TestHandlerServesRegisteredCollectors(t *testing.T) {
	if Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}
