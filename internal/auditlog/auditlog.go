package auditlog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Entry 审计日志表的 GORM 模型。只追加：没有更新/删除操作。
type Entry struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ActorLabel string    `gorm:"index;size:64;not null"` // 用户名，或 Master 的固定标识
	Action     string    `gorm:"size:200;not null"`
	Details    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Append(ctx context.Context, e *Entry) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(e).Error
}

// Recent 最近 limit 条记录，按时间倒序。
func (r *Repo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []Entry
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
