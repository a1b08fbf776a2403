package user

import (
	"strings"
	"time"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
)

// User 是 users 表的 GORM 模型。
// 角色与封禁状态是一等字段，注册时即写入，不做运行时补列。
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:128;not null"` // bcrypt，自带盐
	Roles        string    `gorm:"size:256;not null"` // 逗号分隔，例如 "user,admin"
	Blocked      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (u User) RolesSlice() []string {
	if strings.TrimSpace(u.Roles) == "" {
		return nil
	}
	parts := strings.Split(u.Roles, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func RolesJoin(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return strings.Join(out, ",")
}

// HasRole 是否包含指定角色。
func (u User) HasRole(role string) bool {
	for _, r := range u.RolesSlice() {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// ToActor 将账号还原为请求方身份。
func (u User) ToActor() actor.Actor {
	return actor.FromRoles(u.ID, u.Username, u.RolesSlice())
}
