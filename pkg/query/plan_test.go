package query

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/metrics"
)

func TestExecuteRecordsLatencyByPlanKind(t *testing.T) {
	plan := NewListPlan([]any{1, 2, 3})

	rows, err := Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	got := testutil.CollectAndCount(metrics.QueryPlanExecDuration.WithLabelValues("ListPlan"))
	assert.Greater(t, got, 0)
}

func TestPlanKindStripsPackageQualifier(t *testing.T) {
	assert.Equal(t, "ListPlan", planKind(NewListPlan(nil)))
}
