package handler

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/audit"
	"custos/internal/evidence/service"
	"custos/internal/evidence/store"
	id "custos/pkg/domain"
	"custos/pkg/testutil"
)

func newEvidenceRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), nil, logger)
	svc := service.New(store.NewInMemory(), auditor, logger, nil)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func serve(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = testutil.WithActor(req, "det.reyes")
	req = testutil.WithTime(req, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func intakeItem(t *testing.T, router http.Handler, content string) string {
	t.Helper()
	body := map[string]string{
		"case_id":     id.NewCaseID().String(),
		"description": "seized laptop",
		"custodian":   "det.reyes",
		"location":    "evidence room A",
	}
	if content != "" {
		body["content"] = base64.StdEncoding.EncodeToString([]byte(content))
	}
	rec := serve(t, router, testutil.NewJSONRequest(t, http.MethodPost, "/evidence", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestIntakeAndHistory(t *testing.T) {
	router := newEvidenceRouter()
	evidenceID := intakeItem(t, router, "disk image")

	rec := serve(t, router, testutil.NewRequest(t, http.MethodGet, "/evidence/"+evidenceID+"/custody"))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []struct {
		Seq    uint64 `json:"seq"`
		Action string `json:"action"`
	}
	testutil.DecodeJSON(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, uint64(1), history[0].Seq)
	assert.Equal(t, "COLLECTION", history[0].Action)
}

func TestAppendRejectsBackdatedEntry(t *testing.T) {
	router := newEvidenceRouter()
	evidenceID := intakeItem(t, router, "disk image")

	rec := serve(t, router, testutil.NewJSONRequest(t, http.MethodPost, "/evidence/"+evidenceID+"/custody", map[string]any{
		"action":       "TRANSFER",
		"to_custodian": "analyst.kim",
		"timestamp":    time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		"purpose":      "backdated handoff",
	}))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var resp struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "ordering_violation", resp.Error)
}

func TestVerifyHashMismatch(t *testing.T) {
	router := newEvidenceRouter()
	evidenceID := intakeItem(t, router, "original content")

	rec := serve(t, router, testutil.NewJSONRequest(t, http.MethodPost, "/evidence/"+evidenceID+"/verify-hash", map[string]string{
		"content": base64.StdEncoding.EncodeToString([]byte("tampered content")),
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Match    bool   `json:"match"`
		Stored   string `json:"stored_digest"`
		Computed string `json:"computed_digest"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	assert.False(t, resp.Match)
	assert.NotEqual(t, resp.Stored, resp.Computed)
}

func TestInvalidIDsAreBadRequests(t *testing.T) {
	router := newEvidenceRouter()

	rec := serve(t, router, testutil.NewRequest(t, http.MethodGet, "/evidence/not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, router, testutil.NewRequest(t, http.MethodGet, "/evidence/"+id.NewEvidenceID().String()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
