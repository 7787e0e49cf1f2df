package handler

import (
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
	"custos/internal/casedir"
	disposalservice "custos/internal/disposal/service"
	disposalstore "custos/internal/disposal/store"
	evidenceservice "custos/internal/evidence/service"
	evidencestore "custos/internal/evidence/store"
	holdhandler "custos/internal/legalhold/handler"
	holdservice "custos/internal/legalhold/service"
	holdstore "custos/internal/legalhold/store"
	retentionhandler "custos/internal/retention/handler"
	retentionservice "custos/internal/retention/service"
	retentionstore "custos/internal/retention/store"
	id "custos/pkg/domain"
	"custos/pkg/testutil"
)

// workflowFixture wires the whole engine on memory stores so the disposal
// endpoints are exercised end to end.
type workflowFixture struct {
	router http.Handler
	cases  *casedir.InMemory
	now    time.Time
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), nil, logger)
	cases := casedir.NewInMemory()

	evidenceSvc := evidenceservice.New(evidencestore.NewInMemory(), auditor, logger, nil)
	retentionSvc := retentionservice.New(retentionstore.NewInMemory(), auditor, logger)
	holdSvc := holdservice.New(holdstore.NewInMemory(), auditor, logger, nil)
	disposalSvc := disposalservice.New(
		disposalstore.NewInMemory(), cases, retentionSvc, holdSvc, evidenceSvc,
		auditor, logger, nil, nil, time.Minute,
	)
	holdSvc.SetWorkflowNotifier(disposalSvc)

	r := chi.NewRouter()
	New(disposalSvc, logger).Register(r)
	retentionhandler.New(retentionSvc, logger).Register(r)
	holdhandler.New(holdSvc, logger).Register(r)

	return &workflowFixture{
		router: r,
		cases:  cases,
		now:    time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *workflowFixture) do(t *testing.T, actor string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = testutil.WithActor(req, actor)
	req = testutil.WithTime(req, f.now)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *workflowFixture) createPolicy(t *testing.T, years int, method string, dual bool) {
	t.Helper()
	rec := f.do(t, "admin.osei", testutil.NewJSONRequest(t, http.MethodPost, "/retention/policies", map[string]any{
		"case_type":              "RANSOMWARE",
		"retention_years":        years,
		"disposal_method":        method,
		"requires_dual_approval": dual,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *workflowFixture) addClosedCase(t *testing.T, closedAt time.Time) id.CaseID {
	t.Helper()
	caseID := id.NewCaseID()
	f.cases.Put(casedir.CaseInfo{
		ID:       caseID,
		CaseType: id.CaseTypeRansomware,
		Status:   casedir.CaseStatusClosed,
		ClosedAt: &closedAt,
	})
	return caseID
}

type requestBody struct {
	ID       string `json:"id"`
	CaseID   string `json:"case_id"`
	Status   string `json:"status"`
	HoldNote string `json:"hold_note"`
}

func (f *workflowFixture) scanAndGetRequest(t *testing.T, caseID id.CaseID) requestBody {
	t.Helper()
	rec := f.do(t, "system", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, "system", testutil.NewRequest(t, http.MethodGet, "/disposal-requests?case_id="+caseID.String()))
	require.Equal(t, http.StatusOK, rec.Code)
	var reqs []requestBody
	testutil.DecodeJSON(t, rec, &reqs)
	require.Len(t, reqs, 1)
	return reqs[0]
}

func TestWorkflowEndToEnd(t *testing.T) {
	f := newWorkflowFixture(t)
	f.createPolicy(t, 10, "CRYPTOGRAPHIC_ERASURE", true)
	caseID := f.addClosedCase(t, time.Date(2014, 3, 10, 0, 0, 0, 0, time.UTC))

	req := f.scanAndGetRequest(t, caseID)
	assert.Equal(t, "PENDING_APPROVAL", req.Status)

	// First signature from one approver, countersignature from another.
	rec := f.do(t, "sgt.okafor", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var after struct {
		Status         string `json:"status"`
		SecondApproval *struct {
			Actor string `json:"actor"`
		} `json:"second_approval"`
	}
	testutil.DecodeJSON(t, rec, &after)
	assert.Equal(t, "APPROVED", after.Status)
	assert.Nil(t, after.SecondApproval)

	// The countersignature gate: beginning now fails, and the same approver
	// cannot sign twice.
	rec = f.do(t, "tech.ng", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/begin", nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "one of two signatures cannot begin destruction")

	rec = f.do(t, "sgt.okafor", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "same approver cannot countersign")

	rec = f.do(t, "lt.moreau", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	testutil.DecodeJSON(t, rec, &after)
	assert.Equal(t, "APPROVED", after.Status)
	require.NotNil(t, after.SecondApproval)
	assert.Equal(t, "lt.moreau", after.SecondApproval.Actor)

	rec = f.do(t, "tech.ng", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/begin", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, "tech.ng", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/complete", map[string]string{
		"notes": "keys destroyed",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	testutil.DecodeJSON(t, rec, &after)
	assert.Equal(t, "COMPLETED", after.Status)
}

func TestLegalHoldBlocksWorkflow(t *testing.T) {
	f := newWorkflowFixture(t)
	f.createPolicy(t, 10, "SECURE_DELETE", false)
	caseID := f.addClosedCase(t, time.Date(2014, 3, 10, 0, 0, 0, 0, time.UTC))
	req := f.scanAndGetRequest(t, caseID)

	// Place a hold; the pending request is pushed to ON_HOLD.
	rec := f.do(t, "counsel.diaz", testutil.NewJSONRequest(t, http.MethodPost, "/legal-holds", map[string]string{
		"case_id": caseID.String(),
		"reason":  "pending litigation",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var hold struct {
		ID string `json:"id"`
	}
	testutil.DecodeJSON(t, rec, &hold)

	rec = f.do(t, "system", testutil.NewRequest(t, http.MethodGet, "/disposal-requests/"+req.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var held requestBody
	testutil.DecodeJSON(t, rec, &held)
	assert.Equal(t, "ON_HOLD", held.Status)

	// Approval is rejected while the hold stands.
	rec = f.do(t, "sgt.okafor", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var errBody struct {
		Error string `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &errBody)
	assert.Equal(t, "legal_hold_active", errBody.Error)

	// Releasing the hold recovers the request to PENDING_APPROVAL.
	rec = f.do(t, "counsel.diaz", testutil.NewRequest(t, http.MethodDelete, "/legal-holds/"+hold.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, "system", testutil.NewRequest(t, http.MethodGet, "/disposal-requests/"+req.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.DecodeJSON(t, rec, &held)
	assert.Equal(t, "PENDING_APPROVAL", held.Status)

	// And the workflow can then run to completion.
	rec = f.do(t, "sgt.okafor", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestWitnessNamedAtApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	f.createPolicy(t, 10, "PHYSICAL_DESTRUCTION", false)
	caseID := f.addClosedCase(t, time.Date(2014, 3, 10, 0, 0, 0, 0, time.UTC))
	req := f.scanAndGetRequest(t, caseID)

	rec := f.do(t, "sgt.okafor", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/approve", map[string]string{
		"witness": "insp.vargas",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, "tech.ng", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/begin", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Completion carries no witness of its own; the one named at approval
	// satisfies the physical-destruction rule.
	rec = f.do(t, "tech.ng", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/"+req.ID+"/complete", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done struct {
		Status  string `json:"status"`
		Witness string `json:"witness"`
	}
	testutil.DecodeJSON(t, rec, &done)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.Equal(t, "insp.vargas", done.Witness)
}

func TestScanListFilters(t *testing.T) {
	f := newWorkflowFixture(t)
	f.createPolicy(t, 10, "SECURE_DELETE", false)
	f.addClosedCase(t, time.Date(2014, 3, 10, 0, 0, 0, 0, time.UTC))
	// Not yet eligible.
	f.addClosedCase(t, time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC))

	rec := f.do(t, "system", testutil.NewJSONRequest(t, http.MethodPost, "/disposal-requests/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		CasesExamined   int `json:"cases_examined"`
		RequestsCreated int `json:"requests_created"`
	}
	testutil.DecodeJSON(t, rec, &report)
	assert.Equal(t, 2, report.CasesExamined)
	assert.Equal(t, 1, report.RequestsCreated)

	rec = f.do(t, "system", testutil.NewRequest(t, http.MethodGet, "/disposal-requests?status=PENDING_APPROVAL"))
	require.Equal(t, http.StatusOK, rec.Code)
	var reqs []requestBody
	testutil.DecodeJSON(t, rec, &reqs)
	assert.Len(t, reqs, 1)

	rec = f.do(t, "system", testutil.NewRequest(t, http.MethodGet, "/disposal-requests?status=NOT_A_STATUS"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
