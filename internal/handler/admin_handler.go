package handler

import (
	"net/http"

	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// AdminHandler 管理后台：账号管理、审计日志、运营概览。
// 权限都在核心层校验，这里只做编解码。
type AdminHandler struct {
	users        *user.Service
	vehicles     *vehicle.Service
	reservations *reservation.Service
	audit        *auditlog.Recorder
}

func NewAdminHandler(users *user.Service, vehicles *vehicle.Service,
	reservations *reservation.Service, audit *auditlog.Recorder) *AdminHandler {
	return &AdminHandler{users: users, vehicles: vehicles, reservations: reservations, audit: audit}
}

type UserPageResponse struct {
	Items []UserResponse `json:"items"`
	Total int64          `json:"total"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	users, total, err := h.users.List(r.Context(), act, offset, limit)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, UserPageResponse{Items: items, Total: total})
}

type BlockRequest struct {
	Blocked bool `json:"blocked"`
}

func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	var req BlockRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.users.SetBlocked(r.Context(), act, chi.URLParam(r, "id"), req.Blocked)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AdminHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	u, err := h.users.GrantAdmin(r.Context(), act, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	entries, err := h.audit.Recent(r.Context(), act, queryInt(r, "limit", 0))
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditEntryResponses(entries))
}

type DashboardResponse struct {
	Vehicles            int64                `json:"vehicles"`
	Users               int64                `json:"users"`
	PendingReservations int64                `json:"pending_reservations"`
	ActiveReservations  int64                `json:"active_reservations"`
	RecentActions       []AuditEntryResponse `json:"recent_actions"`
}

// Dashboard 运营概览：核心实体计数 + 最近的管理操作。
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	ctx := r.Context()

	users, err := h.users.Count(ctx, act)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	vehicles, err := h.vehicles.Count(ctx)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	pending, err := h.reservations.CountByStatus(ctx, act, reservation.StatusPending)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	active, err := h.reservations.CountByStatus(ctx, act, reservation.StatusActive)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	recent, err := h.audit.Recent(ctx, act, 5)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardResponse{
		Vehicles:            vehicles,
		Users:               users,
		PendingReservations: pending,
		ActiveReservations:  active,
		RecentActions:       toAuditEntryResponses(recent),
	})
}
