package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/blogman/internal/feedimport"
	"github.com/hitoshi/blogman/internal/model"
)

// mockImportService はImportServiceInterfaceのモック実装。
type mockImportService struct {
	importFn func(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error)
}

func (m *mockImportService) Import(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error) {
	if m.importFn != nil {
		return m.importFn(ctx, actor, in)
	}
	return nil, nil
}

// mockImportMetrics はImportMetricsRecorderのモック実装。
type mockImportMetrics struct {
	imported int
}

func (m *mockImportMetrics) RecordImportedItems(count int) {
	m.imported += count
}

// インポート成功で件数が返り、メトリクスが記録されることを検証
func TestImportFeed_Success(t *testing.T) {
	svc := &mockImportService{
		importFn: func(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error) {
			if actor.ID != testUserID {
				t.Errorf("actor.ID = %q, want %q", actor.ID, testUserID)
			}
			if in.URL != "https://blog.example.com/feed.xml" {
				t.Errorf("in.URL = %q", in.URL)
			}
			return &feedimport.Result{FeedTitle: "Example Blog", Imported: 3, Skipped: 1}, nil
		},
	}
	metrics := &mockImportMetrics{}
	h := NewImportHandler(svc, metrics)

	body := `{"url": "https://blog.example.com/feed.xml", "tags": ["imported"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/import", bytes.NewBufferString(body))
	req = withUser(req, testAuthor())
	w := httptest.NewRecorder()
	h.ImportFeed(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result importResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.FeedTitle != "Example Blog" || result.Imported != 3 || result.Skipped != 1 {
		t.Errorf("result = %+v", result)
	}
	if metrics.imported != 3 {
		t.Errorf("metrics.imported = %d, want 3", metrics.imported)
	}
}

// 取得できないURLの検証エラーが400で返ることを検証
func TestImportFeed_BlockedURL(t *testing.T) {
	svc := &mockImportService{
		importFn: func(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error) {
			return nil, model.NewValidationError([]string{"url: 取得できないURLです: private network address"})
		},
	}
	h := NewImportHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/import", bytes.NewBufferString(`{"url": "http://169.254.169.254/"}`))
	req = withUser(req, testAuthor())
	w := httptest.NewRecorder()
	h.ImportFeed(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// 認証なしのアクセスが401となることを検証
func TestImportFeed_NoUser(t *testing.T) {
	h := NewImportHandler(&mockImportService{
		importFn: func(ctx context.Context, actor *model.User, in feedimport.Input) (*feedimport.Result, error) {
			t.Fatal("service should not be reached without a user")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/import", bytes.NewBufferString(`{"url": "https://example.com/feed"}`))
	w := httptest.NewRecorder()
	h.ImportFeed(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
