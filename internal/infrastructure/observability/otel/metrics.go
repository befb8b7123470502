package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 返却結果の種類
const (
	ReturnOutcomeSuccess = "success"
	ReturnOutcomeFailure = "failure"
)

// Metrics メトリクス定義
type Metrics struct {
	// 返却件数（結果別）
	ReturnCount metric.Int64Counter

	// 計上した料金の合計
	FeeCharged metric.Float64Counter

	// 読み取りクエリの実行回数
	QueryFetchCount metric.Int64Counter

	// 表示中の返却画面の数
	ActiveViews metric.Int64UpDownCounter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	returnCount, err := meter.Int64Counter(
		"book_returns",
		metric.WithDescription("Total number of book returns by outcome"),
	)
	if err != nil {
		return nil, err
	}

	feeCharged, err := meter.Float64Counter(
		"fees_charged",
		metric.WithDescription("Sum of fees charged to member balances"),
	)
	if err != nil {
		return nil, err
	}

	queryFetchCount, err := meter.Int64Counter(
		"desk_query_fetches",
		metric.WithDescription("Total number of read queries issued by return views"),
	)
	if err != nil {
		return nil, err
	}

	activeViews, err := meter.Int64UpDownCounter(
		"desk_active_views",
		metric.WithDescription("Number of mounted return views"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ReturnCount:     returnCount,
		FeeCharged:      feeCharged,
		QueryFetchCount: queryFetchCount,
		ActiveViews:     activeViews,
		RequestCount:    requestCount,
		ResponseTime:    responseTime,
		ErrorCount:      errorCount,
	}, nil
}

// RecordReturn 返却結果を記録
func (m *Metrics) RecordReturn(ctx context.Context, outcome string) {
	m.ReturnCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
}

// RecordFeeCharged 計上した料金を記録
func (m *Metrics) RecordFeeCharged(ctx context.Context, amount float64) {
	m.FeeCharged.Add(ctx, amount)
}

// RecordQueryFetch 読み取りクエリの実行を記録
func (m *Metrics) RecordQueryFetch(ctx context.Context, query string, forced bool) {
	m.QueryFetchCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("query", query),
			attribute.Bool("forced", forced),
		),
	)
}

// AddActiveViews 表示中の返却画面数を増減
func (m *Metrics) AddActiveViews(ctx context.Context, delta int64) {
	m.ActiveViews.Add(ctx, delta)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
