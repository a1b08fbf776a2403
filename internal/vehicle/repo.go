package vehicle

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SortOrder 目录排序。只有按价格升/降两种，没有其它排序。
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// Filter 目录查询条件。零值字段表示不过滤。
type Filter struct {
	Brand         string    // 品牌精确匹配
	MaxPrice      float64   // 日租价上限（含），<=0 不过滤
	ExcludeStatus Status    // 排除指定状态（如对用户隐藏维保车辆）
	Sort          SortOrder // 价格排序
}

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

func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

func (r *Repo) Update(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(v).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ?", id).Delete(&Vehicle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// List 按 Filter 组合查询。无排序条件时按创建时间倒序。
func (r *Repo) List(ctx context.Context, f Filter) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}

	q := db.Model(&Vehicle{})
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price_per_day <= ?", f.MaxPrice)
	}
	if f.ExcludeStatus != "" {
		q = q.Where("status <> ?", f.ExcludeStatus)
	}

	switch f.Sort {
	case SortPriceAsc:
		q = q.Order("price_per_day asc")
	case SortPriceDesc:
		q = q.Order("price_per_day desc")
	default:
		q = q.Order("created_at desc")
	}

	var vehicles []Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Brands 去重后的品牌列表（目录筛选下拉框用）。
func (r *Repo) Brands(ctx context.Context) ([]string, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var brands []string
	if err := db.Model(&Vehicle{}).Distinct("brand").Order("brand asc").Pluck("brand", &brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

// Count 车辆总数（管理后台概览用）。
func (r *Repo) Count(ctx context.Context) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := db.Model(&Vehicle{}).Count(&total).Error
	return total, err
}
