package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/blogman/internal/feedimport"
	"github.com/hitoshi/blogman/internal/model"
)

// ImportServiceInterface はインポートハンドラーが必要とするサービスインターフェース。
type ImportServiceInterface interface {
	// Import はフィードを取得し、各記事を操作者名義の下書きとして取り込む。
	Import(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error)
}

// ImportMetricsRecorder は取り込み件数のメトリクス記録インターフェース。
type ImportMetricsRecorder interface {
	RecordImportedItems(count int)
}

// ImportHandler はフィードインポートのHTTPハンドラー。
type ImportHandler struct {
	service ImportServiceInterface
	metrics ImportMetricsRecorder // nilを許容する
}

// NewImportHandler はImportHandlerを生成する。metricsはnilを許容する。
func NewImportHandler(service ImportServiceInterface, metrics ImportMetricsRecorder) *ImportHandler {
	return &ImportHandler{
		service: service,
		metrics: metrics,
	}
}

// importResponse はインポート結果のレスポンス。
type importResponse struct {
	FeedTitle string `json:"feedTitle"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
}

// ImportFeed はRSS/Atomフィードから記事を取り込む。
// POST /api/admin/import
func (h *ImportHandler) ImportFeed(w http.ResponseWriter, r *http.Request) {
	actor := requireUser(w, r)
	if actor == nil {
		return
	}

	var in feedimport.Input
	if !decodeBody(w, r, &in) {
		return
	}

	result, err := h.service.Import(r.Context(), actor, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil && result.Imported > 0 {
		h.metrics.RecordImportedItems(result.Imported)
	}
	writeJSON(w, http.StatusOK, importResponse{
		FeedTitle: result.FeedTitle,
		Imported:  result.Imported,
		Skipped:   result.Skipped,
	})
}
