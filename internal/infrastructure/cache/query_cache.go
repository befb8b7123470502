package cache

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/issuance"
	"library-desk/internal/domain/member"
	"library-desk/internal/infrastructure/config"
)

// Source キャッシュ対象のデータソース
type Source interface {
	IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error)
	Member(ctx context.Context, memberID identifier.ID) (*member.Member, error)
	ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error)
}

// QueryCache 読み取りクエリをキャッシュファーストで返すデコレーター
//
// Evictで会員のエントリを破棄すると、次の読み取りはネットワークに行く。
// 書き込み（ReturnBook）はそのまま委譲する。
type QueryCache struct {
	next   Source
	store  *gocache.Cache
	tracer trace.Tracer
}

// NewQueryCache 新しいQueryCacheを作成
func NewQueryCache(next Source, cfg *config.CacheConfig) *QueryCache {
	return &QueryCache{
		next:   next,
		store:  gocache.New(cfg.TTL, cfg.CleanupInterval),
		tracer: otel.Tracer("query-cache"),
	}
}

func issuedBooksKey(memberID identifier.ID) string {
	return fmt.Sprintf("issuedBooks:%s", memberID)
}

func memberKey(memberID identifier.ID) string {
	return fmt.Sprintf("member:%s", memberID)
}

// IssuedBooks キャッシュがあればそれを、なければデータソースの結果を返す
func (c *QueryCache) IssuedBooks(ctx context.Context, memberID identifier.ID) ([]*issuance.Issuance, error) {
	ctx, span := c.tracer.Start(ctx, "QueryCache.IssuedBooks")
	defer span.End()

	key := issuedBooksKey(memberID)
	if v, ok := c.store.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		cached := v.([]*issuance.Issuance)
		return append([]*issuance.Issuance(nil), cached...), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	books, err := c.next.IssuedBooks(ctx, memberID)
	if err != nil {
		return nil, err
	}
	c.store.SetDefault(key, append([]*issuance.Issuance(nil), books...))
	return books, nil
}

// Member キャッシュがあればそれを、なければデータソースの結果を返す
func (c *QueryCache) Member(ctx context.Context, memberID identifier.ID) (*member.Member, error) {
	ctx, span := c.tracer.Start(ctx, "QueryCache.Member")
	defer span.End()

	key := memberKey(memberID)
	if v, ok := c.store.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return v.(*member.Member), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	m, err := c.next.Member(ctx, memberID)
	if err != nil {
		return nil, err
	}
	c.store.SetDefault(key, m)
	return m, nil
}

// ReturnBook データソースにそのまま委譲
func (c *QueryCache) ReturnBook(ctx context.Context, transactionID identifier.ID) (*issuance.Issuance, error) {
	return c.next.ReturnBook(ctx, transactionID)
}

// Evict 会員の読み取りクエリのキャッシュを破棄
func (c *QueryCache) Evict(memberID identifier.ID) {
	c.store.Delete(issuedBooksKey(memberID))
	c.store.Delete(memberKey(memberID))
}

// Len キャッシュされているエントリ数
func (c *QueryCache) Len() int {
	return c.store.ItemCount()
}
