package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/common/auth"
	"github.com/CarLinkRent/CarLinkRent/internal/common/config"
	"github.com/CarLinkRent/CarLinkRent/internal/common/server"
	"github.com/CarLinkRent/CarLinkRent/internal/user"
)

// AuthHandler 注册/登录/当前身份。
type AuthHandler struct {
	users *user.Service
	audit *auditlog.Recorder
	cfg   config.AuthConfig
}

func NewAuthHandler(users *user.Service, audit *auditlog.Recorder, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{users: users, audit: audit, cfg: cfg}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func (h *AuthHandler) tokenTTL() time.Duration {
	if h.cfg.TokenTTL > 0 {
		return time.Duration(h.cfg.TokenTTL) * time.Hour
	}
	return 24 * time.Hour
}

// Register 注册新账号并直接签发 token。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	// Master 账号名保留，不允许被注册占用
	if h.cfg.MasterUsername != "" && strings.EqualFold(req.Username, h.cfg.MasterUsername) {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}

	u, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, server.ActorFromContext(r.Context()), err)
		return
	}

	a := u.ToActor()
	token, expires, err := auth.GenerateAccessToken(h.cfg, a.ID, a.Username, a.Roles(), h.tokenTTL())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token, ExpiresAt: expires, User: toUserResponse(u)})
}

// Login 校验凭证并签发 token。
// Master Key 短路：用户名+口令同时命中配置的 Master 凭证时，
// 不查库，直接签发 Master 身份的 token。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if h.isMasterLogin(req.Username, req.Password) {
		a := actor.Master()
		token, expires, err := auth.GenerateAccessToken(h.cfg, a.ID, a.Username, a.Roles(), h.tokenTTL())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		h.audit.Record(r.Context(), a.Label(), "master login", "")
		writeJSON(w, http.StatusOK, TokenResponse{
			Token:     token,
			ExpiresAt: expires,
			User:      UserResponse{ID: a.ID, Username: a.Username, Roles: a.Roles()},
		})
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, actor.Anonymous(), err)
		return
	}

	a := u.ToActor()
	token, expires, err := auth.GenerateAccessToken(h.cfg, a.ID, a.Username, a.Roles(), h.tokenTTL())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires, User: toUserResponse(u)})
}

func (h *AuthHandler) isMasterLogin(username, password string) bool {
	if h.cfg.MasterUsername == "" || h.cfg.MasterPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.MasterUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.MasterPassword)) == 1
	return userOK && passOK
}

// Me 返回当前请求方身份。Master 不落库，直接回合成视图。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	act := server.ActorFromContext(r.Context())
	if !act.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if act.Kind == actor.KindMaster {
		writeJSON(w, http.StatusOK, UserResponse{ID: act.ID, Username: act.Username, Roles: act.Roles()})
		return
	}

	u, err := h.users.Get(r.Context(), act.ID)
	if err != nil {
		writeDomainError(w, act, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
