package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"staybook/internal/properties/service"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PropertyHandler struct {
	service service.PropertyService
	log     *logger.Logger
}

func NewPropertyHandler(service service.PropertyService, log *logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		log:     log,
	}
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ParsePagination(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	properties, total, err := h.service.List(r.Context(), principal, filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, properties, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	property, err := h.service.GetByID(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	var property model.Property
	if err := json.NewDecoder(r.Body).Decode(&property); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), principal, &property); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, property); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	var patch model.PropertyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	property, err := h.service.Update(r.Context(), principal, ps.ByName("id"), &patch)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal, ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

type moderationRequest struct {
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
}

func (h *PropertyHandler) SetStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := guard.FromContext(r.Context())

	var req moderationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	property, err := h.service.SetStatus(r.Context(), principal, req.PropertyID, req.Status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func parseFilter(r *http.Request) (*model.PropertyFilter, error) {
	query := r.URL.Query()

	filter := &model.PropertyFilter{
		City:   query.Get("city"),
		County: query.Get("county"),
		Type:   query.Get("type"),
		Status: query.Get("status"),
		HostID: query.Get("host_id"),
	}

	if minStr := query.Get("min_price"); minStr != "" {
		parsed, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid min_price parameter: %s", minStr))
		}
		filter.MinPrice = &parsed
	}
	if maxStr := query.Get("max_price"); maxStr != "" {
		parsed, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid max_price parameter: %s", maxStr))
		}
		filter.MaxPrice = &parsed
	}

	if amenities := query.Get("amenities"); amenities != "" {
		for _, amenity := range strings.Split(amenities, ",") {
			if trimmed := strings.TrimSpace(amenity); trimmed != "" {
				filter.Amenities = append(filter.Amenities, trimmed)
			}
		}
	}

	return filter, nil
}

func (h *PropertyHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/properties", h.List)
	router.POST("/api/v1/properties", h.Create)
	router.GET("/api/v1/properties/:id", h.GetByID)
	router.PUT("/api/v1/properties/:id", h.Update)
	router.DELETE("/api/v1/properties/:id", h.Delete)
	router.PUT("/api/v1/admin/properties", h.SetStatus)
}
