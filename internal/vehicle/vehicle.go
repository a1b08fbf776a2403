package vehicle

import (
	"time"
)

// Status 车辆运营状态（持久化为字符串）。
// 状态是独立字段，不由预订推导；预订流转逻辑负责维护两者一致。
type Status string

const (
	StatusAvailable   Status = "available"   // 可租
	StatusRented      Status = "rented"      // 已租出
	StatusMaintenance Status = "maintenance" // 维保中
)

// ValidStatus 是否为合法状态值。
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance:
		return true
	default:
		return false
	}
}

// Vehicle 是 vehicles 表的 GORM 模型。
// OwnerID 为空表示平台自营车辆；否则归属某个账号。
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Brand       string    `gorm:"index;size:100;not null"`
	Model       string    `gorm:"size:100;not null"`
	Plate       string    `gorm:"size:20"`
	Year        int       `gorm:"default:0"`
	Km          float64   `gorm:"default:0"` // 里程（公里）
	PricePerDay float64   `gorm:"not null"`  // 日租价，必须为正
	ImageURL    string    `gorm:"size:500"`
	Status      Status    `gorm:"type:varchar(20);index;not null"`
	OwnerID     string    `gorm:"index;size:36"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
