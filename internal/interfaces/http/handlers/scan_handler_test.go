package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type mockScanService struct {
	mock.Mock
	uploaded []byte
}

func (m *mockScanService) Submit(ctx context.Context, req scanjob.SubmitRequest) (*scan.ScanJob, error) {
	if req.Image != nil {
		m.uploaded, _ = io.ReadAll(req.Image)
		req.Image = nil
	}
	args := m.Called(ctx, req)
	if job := args.Get(0); job != nil {
		return job.(*scan.ScanJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) Get(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanJob, error) {
	args := m.Called(ctx, tenantID, id)
	if job := args.Get(0); job != nil {
		return job.(*scan.ScanJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) GetResult(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if rec := args.Get(0); rec != nil {
		return rec.(*scan.ScanRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) Verify(ctx context.Context, tenantID common.TenantID, id common.ID, verdict string) (*scan.ScanRecord, error) {
	args := m.Called(ctx, tenantID, id, verdict)
	if rec := args.Get(0); rec != nil {
		return rec.(*scan.ScanRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func newScanRouter(svc ScanService, maxBody int64) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithTenant(req.Context(), &middleware.TenantInfo{ID: "acme", UserID: "u-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/api/v1", NewScanHandler(svc, maxBody, logging.NewNopLogger()).RegisterRoutes)
	return r
}

func pendingJob() *scan.ScanJob {
	return &scan.ScanJob{
		ID:        "job-1",
		TenantID:  "acme",
		ScanType:  scan.ScanTypeLocal,
		Status:    scan.JobPending,
		CreatedAt: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestScanHandler_SubmitJSON(t *testing.T) {
	svc := &mockScanService{}
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(req scanjob.SubmitRequest) bool {
		return req.TenantID == "acme" && req.UserID == "u-1" &&
			req.ImagePath == "s3://scans/a.jpg" && req.ScanType == "LOCAL" &&
			req.ProductID != nil && *req.ProductID == "p-1" && req.ReferenceID == nil
	})).Return(pendingJob(), nil)

	body := `{"image_path":" s3://scans/a.jpg ","scan_type":"LOCAL","product_id":"p-1","reference_id":""}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newScanRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/scans/job-1", w.Header().Get("Location"))
	var resp SubmitScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.ID("job-1"), resp.JobID)
	assert.Equal(t, scan.JobPending, resp.Status)
	svc.AssertExpectations(t)
}

func multipartBody(t *testing.T, partType string, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="shoe.png"`)
	if partType != "" {
		h.Set("Content-Type", partType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestScanHandler_SubmitMultipart(t *testing.T) {
	svc := &mockScanService{}
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(req scanjob.SubmitRequest) bool {
		return req.ImageName == "shoe.png" && req.ContentType == "image/png" &&
			req.ImageSize == int64(len(pngHeader)) && req.ScanType == "AI_VISION"
	})).Return(pendingJob(), nil)

	buf, ct := multipartBody(t, "application/octet-stream", pngHeader, map[string]string{"scan_type": "AI_VISION"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", buf)
	req.Header.Set("Content-Type", ct)
	newScanRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, pngHeader, svc.uploaded, "sniffing must rewind the upload")
	svc.AssertExpectations(t)
}

func TestScanHandler_SubmitMultipartTrustsPartType(t *testing.T) {
	svc := &mockScanService{}
	svc.On("Submit", mock.Anything, mock.MatchedBy(func(req scanjob.SubmitRequest) bool {
		return req.ContentType == "image/webp"
	})).Return(pendingJob(), nil)

	buf, ct := multipartBody(t, "image/webp", []byte("RIFF0000WEBP"), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", buf)
	req.Header.Set("Content-Type", ct)
	newScanRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestScanHandler_SubmitBodyTooLarge(t *testing.T) {
	svc := &mockScanService{}
	buf, ct := multipartBody(t, "image/png", bytes.Repeat([]byte{1}, 4096), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", buf)
	req.Header.Set("Content-Type", ct)
	newScanRouter(svc, 1024).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestScanHandler_SubmitMalformedJSON(t *testing.T) {
	w := httptest.NewRecorder()
	newScanRouter(&mockScanService{}, 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeValidation), decodeError(t, w).Code)
}

func TestScanHandler_SubmitErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
		msg    string
	}{
		{"quota", errors.New(errors.ErrCodeQuotaExceeded, "monthly local quota exhausted"), http.StatusTooManyRequests, errors.ErrCodeQuotaExceeded, "monthly local quota exhausted"},
		{"bad scan type", errors.New(errors.ErrCodeScanTypeInvalid, `unknown scan type "X"`), http.StatusBadRequest, errors.ErrCodeScanTypeInvalid, `unknown scan type "X"`},
		{"missing image", errors.New(errors.ErrCodeScanImageMissing, "an image upload or image_path is required"), http.StatusBadRequest, errors.ErrCodeScanImageMissing, "an image upload or image_path is required"},
		{"storage failure is masked", errors.Wrap(stderrors.New("minio: connection reset"), errors.ErrCodeStorage, "store scan image"), http.StatusInternalServerError, errors.ErrCodeStorage, errors.ErrCodeStorage.DefaultMessage()},
		{"plain error is internal", stderrors.New("boom"), http.StatusInternalServerError, errors.ErrCodeInternal, errors.ErrCodeInternal.DefaultMessage()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockScanService{}
			svc.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{"image_path":"s3://b/k"}`)))

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, string(tt.code), body.Code)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestScanHandler_Get(t *testing.T) {
	svc := &mockScanService{}
	job := pendingJob()
	job.Status = scan.JobProcessing
	svc.On("Get", mock.Anything, common.TenantID("acme"), common.ID("job-1")).Return(job, nil)
	svc.On("Get", mock.Anything, common.TenantID("acme"), common.ID("nope")).
		Return(nil, errors.New(errors.ErrCodeScanJobNotFound, "scan job nope not found"))

	w := httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scans/job-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got scan.ScanJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, scan.JobProcessing, got.Status)

	w = httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scans/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanHandler_GetResult(t *testing.T) {
	svc := &mockScanService{}
	record := &scan.ScanRecord{
		JobID:  "job-1",
		Origin: scan.OriginProvider,
		Result: &scan.EvaluationResult{RiskScore: 42, Status: scan.StatusSuspicious},
	}
	svc.On("GetResult", mock.Anything, common.TenantID("acme"), common.ID("job-1")).Return(record, nil)
	svc.On("GetResult", mock.Anything, common.TenantID("acme"), common.ID("job-2")).
		Return(nil, errors.New(errors.ErrCodeScanJobInvalidState, "scan job job-2 is PROCESSING; no result available"))

	w := httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scans/job-1/result", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"risk_score":42`)
	assert.Contains(t, w.Body.String(), `"vision_origin":"PROVIDER"`)

	w = httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scans/job-2/result", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScanHandler_Verify(t *testing.T) {
	svc := &mockScanService{}
	fake := scan.VerdictFake
	svc.On("Verify", mock.Anything, common.TenantID("acme"), common.ID("job-1"), "fake").
		Return(&scan.ScanRecord{JobID: "job-1", Verdict: &fake}, nil)
	svc.On("Verify", mock.Anything, common.TenantID("acme"), common.ID("job-1"), "maybe").
		Return(nil, errors.New(errors.ErrCodeScanVerdictInvalid, `unknown verdict "maybe"`))

	w := httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scans/job-1/verify", strings.NewReader(`{"verdict":"fake"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verdict":"FAKE"`)

	w = httptest.NewRecorder()
	newScanRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scans/job-1/verify", strings.NewReader(`{"verdict":"maybe"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeScanVerdictInvalid), decodeError(t, w).Code)
}

//Personal.AI order the ending
