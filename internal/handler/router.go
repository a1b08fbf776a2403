package handler

import (
	"net/http"

	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/common/config"
	"github.com/CarLinkRent/CarLinkRent/internal/common/logger"
	"github.com/CarLinkRent/CarLinkRent/internal/common/middleware"
	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// Deps 路由装配所需的依赖。
type Deps struct {
	Cfg          *config.Config
	Log          logger.Logger
	Limiter      middleware.RateLimiter
	Users        *user.Service
	Vehicles     *vehicle.Service
	Reservations *reservation.Service
	Audit        *auditlog.Recorder
}

// NewRouter 装配全部 HTTP 路由。
// 中间件顺序：recovery → 限流 → tracing → 访问日志 → 身份解析。
// 权限判定不在路由层做，统一由核心层的策略完成。
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(server.RecoveryMiddleware(d.Log))
	if d.Limiter != nil {
		r.Use(server.RateLimitMiddleware(d.Limiter))
	}
	r.Use(server.TracingMiddleware(d.Cfg.Server.Name))
	r.Use(server.AccessLogMiddleware(d.Log))
	r.Use(server.ActorMiddleware(d.Cfg.Auth))

	authH := NewAuthHandler(d.Users, d.Audit, d.Cfg.Auth)
	vehicleH := NewVehicleHandler(d.Vehicles)
	reservationH := NewReservationHandler(d.Reservations)
	adminH := NewAdminHandler(d.Users, d.Vehicles, d.Reservations, d.Audit)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Get("/me", authH.Me)

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", vehicleH.List)
			r.Get("/brands", vehicleH.Brands)
			r.Get("/{id}", vehicleH.Get)
			r.Post("/", vehicleH.Add)
			r.Put("/{id}", vehicleH.Edit)
			r.Delete("/{id}", vehicleH.Remove)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", reservationH.Create)
			r.Get("/", reservationH.ListOwn)
			r.Post("/{id}/transition", reservationH.Transition)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/reservations", reservationH.ListAll)
			r.Post("/vehicles/{id}/status", vehicleH.SetStatus)
			r.Get("/users", adminH.ListUsers)
			r.Post("/users/{id}/block", adminH.BlockUser)
			r.Post("/users/{id}/grant-admin", adminH.GrantAdmin)
			r.Get("/logs", adminH.Logs)
			r.Get("/dashboard", adminH.Dashboard)
		})
	})

	return r
}
