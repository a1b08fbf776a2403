package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/common/config"
	"github.com/CarLinkRent/CarLinkRent/internal/reservation"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &vehicle.Vehicle{}, &reservation.Reservation{}, &auditlog.Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "rental-service-test"},
		Auth: config.AuthConfig{
			Enabled:        true,
			JWTSecret:      "router-test-secret",
			Issuer:         "carlinkrent",
			Audience:       "carlinkrent",
			TokenTTL:       1,
			MasterUsername: "unisa",
			MasterPassword: "unisa",
		},
	}

	audit := auditlog.NewRecorder(db, nil)
	return NewRouter(Deps{
		Cfg:          cfg,
		Users:        user.NewService(user.NewRepo(db), audit),
		Vehicles:     vehicle.NewService(vehicle.NewRepo(db), audit),
		Reservations: reservation.NewService(db, audit),
		Audit:        audit,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, h http.Handler, username, password string) TokenResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/register", "",
		CredentialsRequest{Username: username, Password: password})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: code %d body %s", username, rec.Code, rec.Body.String())
	}
	return decode[TokenResponse](t, rec)
}

func masterLogin(t *testing.T, h http.Handler) TokenResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/login", "",
		CredentialsRequest{Username: "unisa", Password: "unisa"})
	if rec.Code != http.StatusOK {
		t.Fatalf("master login: code %d body %s", rec.Code, rec.Body.String())
	}
	return decode[TokenResponse](t, rec)
}

func TestRegisterLoginMe(t *testing.T) {
	h := newTestRouter(t)

	reg := registerUser(t, h, "alice", "secret")
	if reg.User.Username != "alice" || reg.Token == "" {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/login", "",
		CredentialsRequest{Username: "alice", Password: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code %d body %s", rec.Code, rec.Body.String())
	}
	login := decode[TokenResponse](t, rec)

	rec = doJSON(t, h, http.MethodGet, "/api/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: code %d body %s", rec.Code, rec.Body.String())
	}
	me := decode[UserResponse](t, rec)
	if me.Username != "alice" {
		t.Fatalf("me mismatch: %+v", me)
	}

	// 错误口令与重复用户名
	rec = doJSON(t, h, http.MethodPost, "/api/login", "",
		CredentialsRequest{Username: "alice", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/register", "",
		CredentialsRequest{Username: "alice", Password: "other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}
}

func TestMasterLoginShortCircuit(t *testing.T) {
	h := newTestRouter(t)

	mk := masterLogin(t, h)
	if mk.User.ID != actor.MasterLabel {
		t.Fatalf("master identity mismatch: %+v", mk.User)
	}

	// Master 不落库：用户列表里不能出现
	rec := doJSON(t, h, http.MethodGet, "/api/admin/users", mk.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin users: code %d body %s", rec.Code, rec.Body.String())
	}
	page := decode[UserPageResponse](t, rec)
	for _, u := range page.Items {
		if u.Username == "unisa" {
			t.Fatalf("master identity must not be persisted")
		}
	}

	// Master 账号名不可被注册占用
	rec = doJSON(t, h, http.MethodPost, "/api/register", "",
		CredentialsRequest{Username: "unisa", Password: "whatever"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("registering master name: expected 409, got %d", rec.Code)
	}
}

func TestCatalogFlow(t *testing.T) {
	h := newTestRouter(t)
	mk := masterLogin(t, h)

	add := func(brand, model string, price float64) VehicleResponse {
		rec := doJSON(t, h, http.MethodPost, "/api/vehicles", mk.Token,
			VehicleRequest{Brand: brand, Model: model, PricePerDay: price})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add vehicle: code %d body %s", rec.Code, rec.Body.String())
		}
		return decode[VehicleResponse](t, rec)
	}
	fiat := add("Fiat", "Panda", 40)
	add("BMW", "320i", 120)
	add("Fiat", "500", 55)

	// 匿名可读目录
	rec := doJSON(t, h, http.MethodGet, "/api/vehicles?brand=Fiat&max_price=50&sort=price_asc", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code %d body %s", rec.Code, rec.Body.String())
	}
	vs := decode[[]VehicleResponse](t, rec)
	if len(vs) != 1 || vs[0].ID != fiat.ID {
		t.Fatalf("filter mismatch: %+v", vs)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/vehicles/brands", "", nil)
	brands := decode[[]string](t, rec)
	if len(brands) != 2 || brands[0] != "BMW" || brands[1] != "Fiat" {
		t.Fatalf("brands mismatch: %v", brands)
	}

	// 匿名不可写
	rec = doJSON(t, h, http.MethodPost, "/api/vehicles", "",
		VehicleRequest{Brand: "Audi", Model: "A3", PricePerDay: 80})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous add: expected 401, got %d", rec.Code)
	}

	// 非法状态值
	rec = doJSON(t, h, http.MethodPost, "/api/admin/vehicles/"+fiat.ID+"/status", mk.Token,
		VehicleStatusRequest{Status: "teleporting"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/admin/vehicles/"+fiat.ID+"/status", mk.Token,
		VehicleStatusRequest{Status: "maintenance"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status: code %d body %s", rec.Code, rec.Body.String())
	}
	v := decode[VehicleResponse](t, rec)
	if v.Status != string(vehicle.StatusMaintenance) {
		t.Fatalf("status not applied: %+v", v)
	}
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	mk := masterLogin(t, h)
	alice := registerUser(t, h, "alice", "secret")

	rec := doJSON(t, h, http.MethodPost, "/api/vehicles", mk.Token,
		VehicleRequest{Brand: "Fiat", Model: "Panda", PricePerDay: 100})
	v := decode[VehicleResponse](t, rec)

	// 发起预订：3 天 × 100
	rec = doJSON(t, h, http.MethodPost, "/api/reservations", alice.Token,
		CreateReservationRequest{VehicleID: v.ID, StartDate: "2024-01-01", EndDate: "2024-01-04"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation: code %d body %s", rec.Code, rec.Body.String())
	}
	res := decode[ReservationResponse](t, rec)
	if res.TotalPrice != 300 || res.Status != string(reservation.StatusPending) {
		t.Fatalf("unexpected reservation: %+v", res)
	}

	// 普通用户不能 approve
	rec = doJSON(t, h, http.MethodPost, "/api/reservations/"+res.ID+"/transition", alice.Token,
		TransitionRequest{Action: "approve"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user approve: expected 403, got %d", rec.Code)
	}

	// 管理员 approve：预订 active，车辆 rented
	rec = doJSON(t, h, http.MethodPost, "/api/reservations/"+res.ID+"/transition", mk.Token,
		TransitionRequest{Action: "approve"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code %d body %s", rec.Code, rec.Body.String())
	}
	res = decode[ReservationResponse](t, rec)
	if res.Status != string(reservation.StatusActive) {
		t.Fatalf("expected active, got %s", res.Status)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/vehicles/"+v.ID, "", nil)
	if got := decode[VehicleResponse](t, rec); got.Status != string(vehicle.StatusRented) {
		t.Fatalf("vehicle must be rented after approve, got %s", got.Status)
	}

	// 重复 approve 是非法流转
	rec = doJSON(t, h, http.MethodPost, "/api/reservations/"+res.ID+"/transition", mk.Token,
		TransitionRequest{Action: "approve"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-approve: expected 409, got %d", rec.Code)
	}

	// complete：预订 completed，车辆回到 available
	rec = doJSON(t, h, http.MethodPost, "/api/reservations/"+res.ID+"/transition", mk.Token,
		TransitionRequest{Action: "complete"})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: code %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodGet, "/api/vehicles/"+v.ID, "", nil)
	if got := decode[VehicleResponse](t, rec); got.Status != string(vehicle.StatusAvailable) {
		t.Fatalf("vehicle must be available after complete, got %s", got.Status)
	}

	// 本人可见自己的预订
	rec = doJSON(t, h, http.MethodGet, "/api/reservations", alice.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list own: code %d body %s", rec.Code, rec.Body.String())
	}
	if own := decode[[]ReservationResponse](t, rec); len(own) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(own))
	}

	// 日期校验
	rec = doJSON(t, h, http.MethodPost, "/api/reservations", alice.Token,
		CreateReservationRequest{VehicleID: v.ID, StartDate: "01/01/2024", EndDate: "2024-01-04"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/reservations", alice.Token,
		CreateReservationRequest{VehicleID: v.ID, StartDate: "2024-01-04", EndDate: "2024-01-04"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty range: expected 400, got %d", rec.Code)
	}
}

func TestAdminSurface(t *testing.T) {
	h := newTestRouter(t)
	mk := masterLogin(t, h)
	alice := registerUser(t, h, "alice", "secret")

	// 普通用户访问管理接口被拒
	for _, path := range []string{"/api/admin/users", "/api/admin/logs", "/api/admin/dashboard", "/api/admin/reservations"} {
		rec := doJSON(t, h, http.MethodGet, path, alice.Token, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s as user: expected 403, got %d", path, rec.Code)
		}
	}

	// 封禁后登录被拒，解封恢复
	rec := doJSON(t, h, http.MethodPost, "/api/admin/users/"+alice.User.ID+"/block", mk.Token,
		BlockRequest{Blocked: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("block: code %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/login", "",
		CredentialsRequest{Username: "alice", Password: "secret"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("blocked login: expected 401, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/admin/users/"+alice.User.ID+"/block", mk.Token,
		BlockRequest{Blocked: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("unblock: code %d", rec.Code)
	}

	// 提升管理员后可以访问管理接口
	rec = doJSON(t, h, http.MethodPost, "/api/admin/users/"+alice.User.ID+"/grant-admin", mk.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("grant admin: code %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/login", "",
		CredentialsRequest{Username: "alice", Password: "secret"})
	relogin := decode[TokenResponse](t, rec)
	rec = doJSON(t, h, http.MethodGet, "/api/admin/dashboard", relogin.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard as promoted admin: code %d body %s", rec.Code, rec.Body.String())
	}

	// 审计日志记下了上面的管理操作
	rec = doJSON(t, h, http.MethodGet, "/api/admin/logs", mk.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: code %d body %s", rec.Code, rec.Body.String())
	}
	entries := decode[[]AuditEntryResponse](t, rec)
	if len(entries) == 0 {
		t.Fatalf("expected audit entries for admin actions")
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Actor] = true
	}
	if !seen[actor.MasterLabel] {
		t.Fatalf("expected MASTER entries in audit log: %+v", entries)
	}

	// dashboard 计数
	rec = doJSON(t, h, http.MethodGet, "/api/admin/dashboard", mk.Token, nil)
	dash := decode[DashboardResponse](t, rec)
	if dash.Users != 1 {
		t.Fatalf("expected 1 user on dashboard, got %d", dash.Users)
	}
}
