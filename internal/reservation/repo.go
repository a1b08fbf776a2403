package reservation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, res *Reservation) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(res).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Reservation, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var res Reservation
	if err := db.Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// ListForUser 某账号的全部预订，按创建时间倒序。
func (r *Repo) ListForUser(ctx context.Context, userID string) ([]Reservation, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var out []Reservation
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll 全量预订（管理视图），按创建时间倒序 + 分页。
func (r *Repo) ListAll(ctx context.Context, offset, limit int) ([]Reservation, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := db.Model(&Reservation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []Reservation
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByStatus 指定状态的预订数量（管理后台概览用）。
func (r *Repo) CountByStatus(ctx context.Context, status Status) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := db.Model(&Reservation{}).Where("status = ?", status).Count(&total).Error
	return total, err
}
