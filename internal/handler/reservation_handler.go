package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/go-chi/chi/v5"
)

// ReservationHandler 预订接口。
type ReservationHandler struct {
	reservations *reservation.Service
}

func NewReservationHandler(reservations *reservation.Service) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type CreateReservationRequest struct {
	VehicleID string `json:"vehicle_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req CreateReservationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	res, err := h.reservations.Create(r.Context(), act, reservation.CreateInput{
		VehicleID: req.VehicleID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

// ListOwn 当前账号的预订，按创建时间倒序。
func (h *ReservationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	rs, err := h.reservations.ListForUser(r.Context(), act, act.ID)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponses(rs))
}

type TransitionRequest struct {
	Action string `json:"action"` // approve | complete | cancel
}

// Transition 推进预订状态。approve/complete 仅管理员；
// cancel 允许预订归属人本人。
func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req TransitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.reservations.Transition(r.Context(), act, chi.URLParam(r, "id"),
		reservation.Action(strings.TrimSpace(strings.ToLower(req.Action))))
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

type ReservationPageResponse struct {
	Items []ReservationResponse `json:"items"`
	Total int64                 `json:"total"`
}

// ListAll 管理视图：全量预订 + 分页。
func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	rs, total, err := h.reservations.ListAll(r.Context(), act, offset, limit)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, ReservationPageResponse{Items: toReservationResponses(rs), Total: total})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
