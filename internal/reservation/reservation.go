package reservation

import "time"

// Status 预订状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending   Status = "pending"   // 已提交，待管理员审批
	StatusActive    Status = "active"    // 审批通过，租期生效
	StatusCompleted Status = "completed" // 已完成（终态）
	StatusCancelled Status = "cancelled" // 已取消（终态）
)

// DateLayout 预订起止日期的解析格式。
const DateLayout = "2006-01-02"

// Reservation 是 reservations 表的 GORM 模型。
// TotalPrice 在创建时按当时车价一次性算定，之后车价变动不回算（历史记录）。
type Reservation struct {
	ID string `gorm:"primaryKey;size:36"`

	VehicleID string `gorm:"index;size:36;not null"`
	UserID    string `gorm:"index;size:36;not null"` // 发起预订的账号

	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"` // 必须严格晚于 StartDate
	Days       int       `gorm:"not null"` // 整天数
	TotalPrice float64   `gorm:"not null"`

	Status Status `gorm:"type:varchar(16);index;not null"`

	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	ApprovedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}
