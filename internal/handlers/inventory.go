package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/export"
	"github.com/ukydev/garage-ops/internal/models"
)

// ListParts returns the inventory.
func (h *GarageHandler) ListParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.store.FindParts(r.Context())
	if err != nil {
		writeStoreError(w, err, "list parts")
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

// CreatePart adds an inventory item.
func (h *GarageHandler) CreatePart(w http.ResponseWriter, r *http.Request) {
	var part models.Part
	if err := decodeJSON(w, r, &part); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	part.Name = strings.TrimSpace(part.Name)
	switch {
	case part.Name == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return
	case part.Stock < 0:
		writeError(w, http.StatusBadRequest, "stock cannot be negative")
		return
	case part.UnitCost < 0:
		writeError(w, http.StatusBadRequest, "unit cost cannot be negative")
		return
	}

	if err := h.store.InsertPart(r.Context(), &part); err != nil {
		writeStoreError(w, err, "create part")
		return
	}
	writeJSON(w, http.StatusCreated, part)
}

// AdjustStock applies a signed delta to a part's stock. Stock never drops below zero.
func (h *GarageHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var adj models.StockAdjustment
	if err := decodeJSON(w, r, &adj); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	part, err := h.store.AdjustStock(r.Context(), id, adj.Delta)
	if err != nil {
		writeStoreError(w, err, "adjust stock")
		return
	}
	entry := log.WithFields(log.Fields{"part_id": id, "delta": adj.Delta, "stock": part.Stock})
	if part.Stock <= h.policy.LowStockThreshold {
		entry.Warn("Part stock is low")
	} else {
		entry.Debug("Stock adjusted")
	}
	writeJSON(w, http.StatusOK, part)
}

// DeletePart removes an inventory item.
func (h *GarageHandler) DeletePart(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePart(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "delete part")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PartsCSV downloads the inventory.
func (h *GarageHandler) PartsCSV(w http.ResponseWriter, r *http.Request) {
	parts, err := h.store.FindParts(r.Context())
	if err != nil {
		writeStoreError(w, err, "list parts")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="parts.csv"`)
	if err := export.PartsCSV(w, parts); err != nil {
		logWriteError(err, "parts csv")
	}
}

// ListTemplates returns the service templates.
func (h *GarageHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.FindTemplates(r.Context())
	if err != nil {
		writeStoreError(w, err, "list templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// CreateTemplate stores a reusable service template.
func (h *GarageHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.ServiceTemplate
	if err := decodeJSON(w, r, &tmpl); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tmpl.Name = strings.TrimSpace(tmpl.Name)
	switch {
	case tmpl.Name == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return
	case !models.IsValidServiceType(tmpl.ServiceType):
		writeError(w, http.StatusBadRequest, "invalid service type")
		return
	case tmpl.EstimatedCost < 0:
		writeError(w, http.StatusBadRequest, "estimated cost cannot be negative")
		return
	}

	if err := h.store.InsertTemplate(r.Context(), &tmpl); err != nil {
		writeStoreError(w, err, "create template")
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// DeleteTemplate removes a service template.
func (h *GarageHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTemplate(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, err, "delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
