package desk

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"library-desk/internal/domain/identifier"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// Registry 表示中の返却画面を保持する
//
// 一定時間アクセスのない画面は破棄される。
type Registry struct {
	store   *gocache.Cache
	ttl     time.Duration
	metrics *otelinfra.Metrics
	newID   func() string
}

// NewRegistry 新しいRegistryを作成
func NewRegistry(ttl, sweepInterval time.Duration, metrics *otelinfra.Metrics) *Registry {
	r := &Registry{
		store:   gocache.New(ttl, sweepInterval),
		ttl:     ttl,
		metrics: metrics,
		newID:   func() string { return uuid.New().String() },
	}
	r.store.OnEvicted(func(string, interface{}) {
		r.metrics.AddActiveViews(context.Background(), -1)
	})
	return r
}

// Create 新しい画面を登録する
func (r *Registry) Create(ctx context.Context, memberID identifier.ID) *View {
	v := newView(r.newID(), memberID)
	r.store.Set(v.id, v, r.ttl)
	r.metrics.AddActiveViews(ctx, 1)
	return v
}

// Get 画面を取得し、有効期限を延長する
//
// 延長は既存のキーにだけ行うので、破棄済みの画面が復活することはない。
func (r *Registry) Get(id string) (*View, error) {
	item, ok := r.store.Get(id)
	if !ok {
		return nil, ErrViewNotFound
	}
	v := item.(*View)
	if err := r.store.Replace(id, v, r.ttl); err != nil {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// Remove 画面を破棄する
func (r *Registry) Remove(id string) {
	r.store.Delete(id)
}

// Len 登録されている画面数
func (r *Registry) Len() int {
	return r.store.ItemCount()
}
