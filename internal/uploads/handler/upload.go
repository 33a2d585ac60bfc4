package handler

import (
	"io"
	"net/http"
	"strconv"

	"staybook/internal/uploads/service"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type UploadHandler struct {
	service       service.UploadService
	maxUploadSize int64
	log           *logger.Logger
}

func NewUploadHandler(service service.UploadService, maxUploadSize int64, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := guard.FromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Unauthorized")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Upload", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	// Multipart framing overhead on top of the file cap.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+64*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("No file provided")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Upload", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.Internal("Failed to read file", err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Upload", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	url, err := h.service.Store(r.Context(), principal, header.Filename, data)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Upload", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, uploadResponse{URL: url}); err != nil {
		h.log.Error("failed to write success response", "handler", "Upload", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stored, err := h.service.Fetch(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Serve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	w.Header().Set("Content-Type", stored.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(stored.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(stored.Data); err != nil {
		h.log.Error("failed to write file response", "handler", "Serve", "error", err)
	}
}

func (h *UploadHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/upload", h.Upload)
	router.GET("/api/v1/files/:id", h.Serve)
}
