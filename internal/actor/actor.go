package actor

import "strings"

// Kind 请求方身份类别。Master Key 登录得到的是一个不落库的
// 超级管理员身份，与普通账号区分开，避免到处用魔法 ID 判断。
type Kind int

const (
	KindAnonymous Kind = iota // 未登录
	KindUser                  // 普通账号
	KindAdmin                 // 管理员账号
	KindMaster                // Master Key（不落库）
)

// 角色常量（JWT roles claim / users.roles 字段里使用）。
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleMaster = "master"
)

// MasterLabel 审计日志里 Master 身份的固定标识。
const MasterLabel = "MASTER"

// Actor 一次请求已解析的操作者。核心层所有操作都显式接收 Actor，
// 不读取任何全局“当前用户”状态。
type Actor struct {
	Kind     Kind
	ID       string // 账号 ID；Master 固定为 MasterLabel；匿名为空
	Username string
}

// Anonymous 未登录请求方。
func Anonymous() Actor {
	return Actor{Kind: KindAnonymous}
}

// Master Master Key 请求方。
func Master() Actor {
	return Actor{Kind: KindMaster, ID: MasterLabel, Username: MasterLabel}
}

// FromRoles 根据角色列表还原 Actor（JWT 解析后调用）。
func FromRoles(id, username string, roles []string) Actor {
	kind := KindUser
	for _, r := range roles {
		switch strings.TrimSpace(strings.ToLower(r)) {
		case RoleMaster:
			return Master()
		case RoleAdmin:
			kind = KindAdmin
		}
	}
	if strings.TrimSpace(id) == "" {
		return Anonymous()
	}
	return Actor{Kind: kind, ID: id, Username: username}
}

// Authenticated 是否已登录。
func (a Actor) Authenticated() bool {
	return a.Kind != KindAnonymous
}

// IsAdmin 是否具备管理员权限（含 Master）。
func (a Actor) IsAdmin() bool {
	return a.Kind == KindAdmin || a.Kind == KindMaster
}

// Label 审计日志里记录的操作者标识。
func (a Actor) Label() string {
	switch a.Kind {
	case KindMaster:
		return MasterLabel
	case KindAnonymous:
		return "SYSTEM"
	default:
		return a.Username
	}
}

// Roles 签发 token 时使用的角色列表。
func (a Actor) Roles() []string {
	switch a.Kind {
	case KindMaster:
		return []string{RoleUser, RoleAdmin, RoleMaster}
	case KindAdmin:
		return []string{RoleUser, RoleAdmin}
	case KindUser:
		return []string{RoleUser}
	default:
		return nil
	}
}
