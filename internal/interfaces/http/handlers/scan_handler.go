package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 4 << 20

// ScanService is the part of the job lifecycle the API exposes.
type ScanService interface {
	Submit(ctx context.Context, req scanjob.SubmitRequest) (*scan.ScanJob, error)
	Get(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanJob, error)
	GetResult(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanRecord, error)
	Verify(ctx context.Context, tenantID common.TenantID, id common.ID, verdict string) (*scan.ScanRecord, error)
}

// ScanHandler serves /api/v1/scans.
type ScanHandler struct {
	service     ScanService
	logger      logging.Logger
	maxBodySize int64
}

// NewScanHandler builds a ScanHandler. maxBodySize caps the request body,
// image included; zero disables the cap.
func NewScanHandler(service ScanService, maxBodySize int64, logger logging.Logger) *ScanHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScanHandler{service: service, logger: logger.Named("scan_handler"), maxBodySize: maxBodySize}
}

// RegisterRoutes mounts the scan endpoints on r.
func (h *ScanHandler) RegisterRoutes(r chi.Router) {
	r.Route("/scans", func(r chi.Router) {
		r.Post("/", h.Submit)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/result", h.GetResult)
		r.Post("/{id}/verify", h.Verify)
	})
}

// SubmitScanRequest is the JSON submission body for images already in
// storage.
type SubmitScanRequest struct {
	ImagePath   string `json:"image_path"`
	ScanType    string `json:"scan_type"`
	ProductID   string `json:"product_id"`
	ReferenceID string `json:"reference_id"`
}

// SubmitScanResponse acknowledges an accepted job.
type SubmitScanResponse struct {
	JobID     common.ID      `json:"job_id"`
	Status    scan.JobStatus `json:"status"`
	ScanType  scan.ScanType  `json:"scan_type"`
	CreatedAt time.Time      `json:"created_at"`
}

// VerifyScanRequest carries a reviewer verdict, GENUINE or FAKE.
type VerifyScanRequest struct {
	Verdict string `json:"verdict"`
}

// Submit handles POST /api/v1/scans. It accepts a multipart upload with an
// "image" file part or a JSON body naming an existing image_path, and
// answers 202 as soon as the job is queued.
func (h *ScanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	tenantID, userID := caller(r)

	req := scanjob.SubmitRequest{TenantID: tenantID, UserID: userID}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeBodyError(w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()
		if err := h.fromMultipart(r, &req); err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
	default:
		var body SubmitScanRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeBodyError(w, err)
			return
		}
		req.ImagePath = strings.TrimSpace(body.ImagePath)
		req.ScanType = body.ScanType
		req.ProductID = optionalID(body.ProductID)
		req.ReferenceID = optionalID(body.ReferenceID)
	}

	job, err := h.service.Submit(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/scans/"+string(job.ID))
	writeJSON(w, http.StatusAccepted, SubmitScanResponse{
		JobID:     job.ID,
		Status:    job.Status,
		ScanType:  job.ScanType,
		CreatedAt: job.CreatedAt,
	})
}

func (h *ScanHandler) fromMultipart(r *http.Request, req *scanjob.SubmitRequest) error {
	req.ScanType = r.FormValue("scan_type")
	req.ProductID = optionalID(r.FormValue("product_id"))
	req.ReferenceID = optionalID(r.FormValue("reference_id"))
	req.ImagePath = strings.TrimSpace(r.FormValue("image_path"))

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return errors.InvalidParam("unreadable image part").WithCause(err)
	}
	contentType, err := sniffContentType(file, header)
	if err != nil {
		return errors.InvalidParam("unreadable image part").WithCause(err)
	}
	req.Image = file
	req.ImageName = header.Filename
	req.ImageSize = header.Size
	req.ContentType = contentType
	return nil
}

// sniffContentType trusts a specific part Content-Type and otherwise
// inspects the first bytes, rewinding the file afterwards.
func sniffContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		mt, _, err := mime.ParseMediaType(ct)
		if err == nil {
			return mt, nil
		}
	}
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// Get handles GET /api/v1/scans/{id}.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := caller(r)
	job, err := h.service.Get(r.Context(), tenantID, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetResult handles GET /api/v1/scans/{id}/result.
func (h *ScanHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := caller(r)
	record, err := h.service.GetResult(r.Context(), tenantID, common.ID(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Verify handles POST /api/v1/scans/{id}/verify.
func (h *ScanHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body VerifyScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBodyError(w, err)
		return
	}
	tenantID, _ := caller(r)
	record, err := h.service.Verify(r.Context(), tenantID, common.ID(chi.URLParam(r, "id")), body.Verdict)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func optionalID(s string) *common.ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id := common.ID(s)
	return &id
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeVisionImageTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "malformed request body")
}

//Personal.AI order the ending
