package handler

import (
	"time"

	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
)

// GORM 模型不直接出网；这里是对外的 JSON 视图。

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     u.RolesSlice(),
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt,
	}
}

type VehicleResponse struct {
	ID          string    `json:"id"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Plate       string    `json:"plate,omitempty"`
	Year        int       `json:"year,omitempty"`
	Km          float64   `json:"km,omitempty"`
	PricePerDay float64   `json:"price_per_day"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toVehicleResponse(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:          v.ID,
		Brand:       v.Brand,
		Model:       v.Model,
		Plate:       v.Plate,
		Year:        v.Year,
		Km:          v.Km,
		PricePerDay: v.PricePerDay,
		ImageURL:    v.ImageURL,
		Status:      string(v.Status),
		OwnerID:     v.OwnerID,
		CreatedAt:   v.CreatedAt,
	}
}

func toVehicleResponses(vs []vehicle.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vs))
	for i := range vs {
		out = append(out, toVehicleResponse(&vs[i]))
	}
	return out
}

type ReservationResponse struct {
	ID          string     `json:"id"`
	VehicleID   string     `json:"vehicle_id"`
	UserID      string     `json:"user_id"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Days        int        `json:"days"`
	TotalPrice  float64    `json:"total_price"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toReservationResponse(res *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          res.ID,
		VehicleID:   res.VehicleID,
		UserID:      res.UserID,
		StartDate:   res.StartDate.Format(reservation.DateLayout),
		EndDate:     res.EndDate.Format(reservation.DateLayout),
		Days:        res.Days,
		TotalPrice:  res.TotalPrice,
		Status:      string(res.Status),
		CreatedAt:   res.CreatedAt,
		ApprovedAt:  res.ApprovedAt,
		CompletedAt: res.CompletedAt,
		CancelledAt: res.CancelledAt,
	}
}

func toReservationResponses(rs []reservation.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationResponse(&rs[i]))
	}
	return out
}

type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAuditEntryResponses(entries []auditlog.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID,
			Actor:     e.ActorLabel,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
