package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// VehicleHandler 车辆目录接口。读公开，写走策略。
type VehicleHandler struct {
	vehicles *vehicle.Service
}

func NewVehicleHandler(vehicles *vehicle.Service) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

type VehicleRequest struct {
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Plate       string  `json:"plate"`
	Year        int     `json:"year"`
	Km          float64 `json:"km"`
	PricePerDay float64 `json:"price_per_day"`
	ImageURL    string  `json:"image_url"`
	OwnerID     *string `json:"owner_id"` // 缺省 = 不改归属；显式空串 = 平台自营
}

func (req VehicleRequest) toSpec() vehicle.Spec {
	return vehicle.Spec{
		Brand:       req.Brand,
		Model:       req.Model,
		Plate:       req.Plate,
		Year:        req.Year,
		Km:          req.Km,
		PricePerDay: req.PricePerDay,
		ImageURL:    req.ImageURL,
		OwnerID:     req.OwnerID,
	}
}

// List 目录查询。query: brand / max_price / exclude_status / sort。
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	f := vehicle.Filter{
		Brand:         strings.TrimSpace(r.URL.Query().Get("brand")),
		ExcludeStatus: vehicle.Status(strings.TrimSpace(r.URL.Query().Get("exclude_status"))),
		Sort:          vehicle.SortOrder(strings.TrimSpace(r.URL.Query().Get("sort"))),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("max_price")); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p <= 0 {
			writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		f.MaxPrice = p
	}
	if f.Sort != vehicle.SortNone && f.Sort != vehicle.SortPriceAsc && f.Sort != vehicle.SortPriceDesc {
		writeError(w, http.StatusBadRequest, "invalid sort")
		return
	}

	vs, err := h.vehicles.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, server.ActorFromContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponses(vs))
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vehicles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, server.ActorFromContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

func (h *VehicleHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.vehicles.Brands(r.Context())
	if err != nil {
		writeDomainError(w, server.ActorFromContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *VehicleHandler) Add(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.vehicles.Add(r.Context(), act, req.toSpec())
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVehicleResponse(v))
}

func (h *VehicleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.vehicles.Edit(r.Context(), act, chi.URLParam(r, "id"), req.toSpec())
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

func (h *VehicleHandler) Remove(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	if err := h.vehicles.Remove(r.Context(), act, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, act, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type VehicleStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus 管理员调整运营状态（如下架维保）。
func (h *VehicleHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req VehicleStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.vehicles.SetStatus(r.Context(), act, chi.URLParam(r, "id"), vehicle.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}
