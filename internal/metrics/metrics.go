// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordAuthFailure(reason string)
	RecordPostCreated(status string)
	RecordLikeToggle()
	RecordImportedItems(count int)
	RecordUnlockedAccounts(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	authFailures     *prometheus.CounterVec
	postsCreated     *prometheus.CounterVec
	likeToggles      prometheus.Counter
	importedItems    prometheus.Counter
	unlockedAccounts prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogman_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_auth_failures_total",
			Help: "認証失敗の理由別の合計数",
		}, []string{"reason"}),
		postsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_posts_created_total",
			Help: "作成された記事の公開状態別の合計数",
		}, []string{"status"}),
		likeToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_like_toggles_total",
			Help: "いいねトグル操作の合計数",
		}),
		importedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_imported_items_total",
			Help: "フィードから取り込まれた記事の合計数",
		}),
		unlockedAccounts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_unlocked_accounts_total",
			Help: "ロック解除されたアカウントの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authFailures,
		c.postsCreated,
		c.likeToggles,
		c.importedItems,
		c.unlockedAccounts,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗を理由付きで記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordPostCreated は記事の作成を公開状態付きで記録する。
func (c *Collector) RecordPostCreated(status string) {
	c.postsCreated.WithLabelValues(status).Inc()
}

// RecordLikeToggle はいいねトグル操作を記録する。
func (c *Collector) RecordLikeToggle() {
	c.likeToggles.Inc()
}

// RecordImportedItems は取り込まれた記事数を記録する。
func (c *Collector) RecordImportedItems(count int) {
	c.importedItems.Add(float64(count))
}

// RecordUnlockedAccounts はロック解除されたアカウント数を記録する。
func (c *Collector) RecordUnlockedAccounts(count int) {
	c.unlockedAccounts.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware はHTTPステータスとレイテンシを記録するミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			c.RecordHTTPStatus(rec.statusCode)
			c.RecordRequestLatency(time.Since(start))
		})
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}
