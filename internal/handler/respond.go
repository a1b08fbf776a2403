package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError 把核心层的 sentinel error 翻译成 HTTP 状态码。
// 策略拒绝按请求方身份区分：未登录是 401，登录了但没权限是 403。
// 登录失败（含封禁）对外统一为一个 401，不暴露具体原因。
func writeDomainError(w http.ResponseWriter, act actor.Actor, err error) {
	switch {
	case errors.Is(err, actor.ErrNotAuthorized):
		if !act.Authenticated() {
			writeError(w, http.StatusUnauthorized, "unauthorized")
		} else {
			writeError(w, http.StatusForbidden, "forbidden")
		}

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrAccountBlocked):
		writeError(w, http.StatusUnauthorized, "invalid credentials")

	case errors.Is(err, user.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username already exists")

	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, reservation.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, "not found")

	case errors.Is(err, vehicle.ErrInvalidSpec),
		errors.Is(err, vehicle.ErrInvalidStatus),
		errors.Is(err, reservation.ErrInvalidDateFormat),
		errors.Is(err, reservation.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, reservation.ErrInvalidTransition),
		errors.Is(err, reservation.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
