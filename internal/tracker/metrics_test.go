package tracker

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtracker.local/internal/domain"
	"jobtracker.local/internal/metrics"
	"jobtracker.local/internal/store"
)

func TestMetrics_CountOperations(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t, store.NewMemoryBackend(), Options{})

	added := testutil.ToFloat64(metrics.ApplicationsAdded)
	ghosted := testutil.ToFloat64(metrics.ApplicationsGhosted)
	toInterview := testutil.ToFloat64(metrics.StatusChanges.WithLabelValues(string(domain.StatusInterview)))

	first, err := svc.AddApplication(ctx, "Acme", "http://x")
	require.NoError(t, err)
	_, err = svc.AddApplication(ctx, "Globex", "http://y")
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, first.ID, domain.StatusInterview)
	require.NoError(t, err)

	clock.Advance(31 * day)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	assert.Equal(t, added+2, testutil.ToFloat64(metrics.ApplicationsAdded))
	assert.Equal(t, ghosted+1, testutil.ToFloat64(metrics.ApplicationsGhosted))
	assert.Equal(t, toInterview+1, testutil.ToFloat64(metrics.StatusChanges.WithLabelValues(string(domain.StatusInterview))))
}

func TestMetrics_GhostedCountedOnlyWhenSaved(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryBackend()
	seed(t, store.New(mem, ""), domain.ApplicationList{
		{ID: 1, CompanyName: "Acme", JobLink: "http://x", Status: domain.StatusInProgress, DateAdded: start.Add(-40 * day)},
	})
	svc, _, _ := newTestService(t, conflictingBackend{mem}, Options{})

	ghosted := testutil.ToFloat64(metrics.ApplicationsGhosted)

	_, err := svc.Sweep(ctx)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	_, err = svc.LoadApplications(ctx)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	assert.Equal(t, ghosted, testutil.ToFloat64(metrics.ApplicationsGhosted))
}
