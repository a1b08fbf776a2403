package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")

	// 登录失败的两种内部原因。对外都表现为一次登录被拒，
	// 但调用方（日志、测试）需要能区分。
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account is blocked")
)

// Service 封装账号域的核心用例（注册/认证/封禁/授权）。
// 所有写操作显式接收操作者 Actor，先过策略再落库。
type Service struct {
	repo  *Repo
	audit *auditlog.Recorder
}

func NewService(repo *Repo, audit *auditlog.Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Register 注册新账号，初始角色为普通用户。
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username/password required: %w", ErrInvalidCredentials)
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Roles:        RolesJoin([]string{actor.RoleUser}),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// 预检查挡不住并发注册：两个请求同时通过检查时，
		// 后落库的会撞用户名唯一索引
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return u, nil
}

// Authenticate 校验用户名/口令。
// 封禁账号先于口令校验被拒绝：被封禁的账号即使口令正确也不能登录。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Blocked {
		return nil, ErrAccountBlocked
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get 按 ID 查询账号。
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	u, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SetBlocked 封禁/解封账号（仅管理员）。Master 不落库，天然不可封禁。
func (s *Service) SetBlocked(ctx context.Context, act actor.Actor, id string, blocked bool) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageUsers, nil) {
		return nil, actor.ErrNotAuthorized
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Blocked = blocked
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	verb := "unblocked"
	if blocked {
		verb = "blocked"
	}
	s.audit.Record(ctx, act.Label(), fmt.Sprintf("%s user %s", verb, u.Username), "")
	return u, nil
}

// GrantAdmin 授予管理员角色（仅管理员）。
func (s *Service) GrantAdmin(ctx context.Context, act actor.Actor, id string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageUsers, nil) {
		return nil, actor.ErrNotAuthorized
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.HasRole(actor.RoleAdmin) {
		u.Roles = RolesJoin(append(u.RolesSlice(), actor.RoleAdmin))
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, act.Label(), fmt.Sprintf("granted admin to %s", u.Username), "")
	}
	return u, nil
}

// List 账号列表（仅管理员）。Master 身份不在表里，永远不会出现在结果中。
func (s *Service) List(ctx context.Context, act actor.Actor, offset, limit int) ([]User, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageUsers, nil) {
		return nil, 0, actor.ErrNotAuthorized
	}
	return s.repo.List(ctx, offset, limit)
}

// Count 账号总数（管理后台概览）。
func (s *Service) Count(ctx context.Context, act actor.Actor) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageUsers, nil) {
		return 0, actor.ErrNotAuthorized
	}
	return s.repo.Count(ctx)
}
