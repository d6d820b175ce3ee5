package vmsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"infra-inventory/feature/vmsync/discovery"
	"infra-inventory/feature/vmsync/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrNoEndpoint means no hypervisor endpoint is configured or enabled.
var ErrNoEndpoint = errors.New("no hypervisor endpoint configured")

// EndpointResolver picks the single endpoint a sync run discovers.
type EndpointResolver interface {
	Resolve(ctx context.Context) (models.Endpoint, error)
}

// endpointResolver prefers the statically configured endpoint and otherwise
// reads hypervisor_endpoints: the row named by sync.endpoint_name, or the first
// enabled row by id. Lookups are cached for ttl and concurrent misses share one
// query.
type endpointResolver struct {
	static *models.Endpoint
	db     *gorm.DB
	name   string
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	cached   models.Endpoint
	cachedAt time.Time
	sf       singleflight.Group
}

// NewEndpointResolver builds a resolver. db may be nil when only the configured
// endpoint is used.
func NewEndpointResolver(dcfg discovery.Config, scfg Config, db *gorm.DB) EndpointResolver {
	r := &endpointResolver{
		db:   db,
		name: scfg.EndpointName,
		ttl:  scfg.EndpointCacheTTL,
		now:  time.Now,
	}
	if dcfg.EndpointURL != "" {
		r.static = &models.Endpoint{
			Name:     dcfg.EndpointName,
			URL:      dcfg.EndpointURL,
			Platform: dcfg.Platform,
		}
	}
	return r
}

func (r *endpointResolver) Resolve(ctx context.Context) (models.Endpoint, error) {
	if r.static != nil {
		return *r.static, nil
	}
	if r.db == nil {
		return models.Endpoint{}, ErrNoEndpoint
	}

	if ep, ok := r.fresh(); ok {
		return ep, nil
	}

	v, err, _ := r.sf.Do("endpoint", func() (interface{}, error) {
		if ep, ok := r.fresh(); ok {
			return ep, nil
		}
		ep, err := r.load(ctx)
		if err != nil {
			return models.Endpoint{}, err
		}
		r.mu.Lock()
		r.cached = ep
		r.cachedAt = r.now()
		r.mu.Unlock()
		return ep, nil
	})
	if err != nil {
		return models.Endpoint{}, err
	}
	return v.(models.Endpoint), nil
}

func (r *endpointResolver) fresh() (models.Endpoint, bool) {
	if r.ttl <= 0 {
		return models.Endpoint{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cachedAt.IsZero() || r.now().Sub(r.cachedAt) > r.ttl {
		return models.Endpoint{}, false
	}
	return r.cached, true
}

func (r *endpointResolver) load(ctx context.Context) (models.Endpoint, error) {
	q := r.db.WithContext(ctx).Where("enabled = ?", true)
	if r.name != "" {
		q = q.Where("name = ?", r.name)
	}

	var row models.HypervisorEndpoint
	err := q.Order("id ASC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Endpoint{}, ErrNoEndpoint
	}
	if err != nil {
		return models.Endpoint{}, fmt.Errorf("load hypervisor endpoint: %w", err)
	}
	return row.ToEndpoint(), nil
}
