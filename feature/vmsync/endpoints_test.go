package vmsync

import (
	"context"
	"testing"
	"time"

	"infra-inventory/feature/vmsync/discovery"
	"infra-inventory/feature/vmsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEndpoints(t *testing.T, rows ...models.HypervisorEndpoint) *endpointResolver {
	t.Helper()
	db := setupTestDB(t)
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return NewEndpointResolver(discovery.Config{}, Config{EndpointCacheTTL: time.Minute}, db).(*endpointResolver)
}

func TestEndpointResolver_Static(t *testing.T) {
	r := NewEndpointResolver(discovery.Config{
		EndpointURL:  "https://vcenter.lab/sdk",
		EndpointName: "lab",
		Platform:     "vcenter",
	}, Config{}, nil)

	ep, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Endpoint{Name: "lab", URL: "https://vcenter.lab/sdk", Platform: "vcenter"}, ep)
}

func TestEndpointResolver_NoDatabase(t *testing.T) {
	r := NewEndpointResolver(discovery.Config{}, Config{}, nil)

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestEndpointResolver_FirstEnabled(t *testing.T) {
	r := seedEndpoints(t,
		models.HypervisorEndpoint{Name: "old", URL: "https://old", Platform: "vcenter", Enabled: false},
		models.HypervisorEndpoint{Name: "dc1", URL: "https://dc1", Platform: "vcenter", Enabled: true},
		models.HypervisorEndpoint{Name: "dc2", URL: "https://dc2", Platform: "vcenter", Enabled: true},
	)

	ep, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc1", ep.Name)
}

func TestEndpointResolver_ByName(t *testing.T) {
	r := seedEndpoints(t,
		models.HypervisorEndpoint{Name: "dc1", URL: "https://dc1", Enabled: true},
		models.HypervisorEndpoint{Name: "dc2", URL: "https://dc2", Enabled: true},
	)
	r.name = "dc2"

	ep, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://dc2", ep.URL)
}

func TestEndpointResolver_NoneEnabled(t *testing.T) {
	r := seedEndpoints(t, models.HypervisorEndpoint{Name: "dc1", URL: "https://dc1", Enabled: false})

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestEndpointResolver_CachesForTTL(t *testing.T) {
	r := seedEndpoints(t, models.HypervisorEndpoint{Name: "dc1", URL: "https://dc1", Enabled: true})
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ep, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc1", ep.Name)

	require.NoError(t, r.db.Exec("DELETE FROM hypervisor_endpoints").Error)

	ep, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc1", ep.Name, "cached endpoint is reused inside the TTL")

	now = now.Add(2 * time.Minute)
	_, err = r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
