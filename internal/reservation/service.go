package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"github.com/CarLinkRent/CarLinkRent/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("reservation not found")
	ErrVehicleNotFound   = errors.New("vehicle not found")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidTransition = errors.New("invalid reservation status transition")

	// ErrConflict 并发流转竞争：另一请求先改了同一条预订。可重试。
	ErrConflict = errors.New("concurrent reservation update conflict")
)

// Service 预订域核心用例。
// 状态流转与配套的车辆状态更新在同一个数据库事务里完成，
// 用 status 条件更新做乐观并发控制。
type Service struct {
	db       *gorm.DB
	repo     *Repo
	vehicles *vehicle.Repo
	audit    *auditlog.Recorder
}

func NewService(db *gorm.DB, audit *auditlog.Recorder) *Service {
	return &Service{
		db:       db,
		repo:     NewRepo(db),
		vehicles: vehicle.NewRepo(db),
		audit:    audit,
	}
}

// CreateInput 发起预订的入参。日期为 "2006-01-02" 格式字符串。
type CreateInput struct {
	VehicleID string
	StartDate string
	EndDate   string
}

// Create 发起预订。
// 价格 = 整天数 × 下单时的日租价，写入后不再回算。
// 创建不改车辆状态：车辆只在审批通过时才标记为已租出。
func (s *Service) Create(ctx context.Context, act actor.Actor, in CreateInput) (*Reservation, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionCreateReservation, nil) {
		return nil, actor.ErrNotAuthorized
	}

	start, err := time.Parse(DateLayout, strings.TrimSpace(in.StartDate))
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q", ErrInvalidDateFormat, in.StartDate)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(in.EndDate))
	if err != nil {
		return nil, fmt.Errorf("%w: end_date %q", ErrInvalidDateFormat, in.EndDate)
	}

	days := int(end.Sub(start) / (24 * time.Hour))
	if days <= 0 {
		return nil, fmt.Errorf("%w: period must be at least 1 day", ErrInvalidDateRange)
	}

	v, err := s.vehicles.FindByID(ctx, strings.TrimSpace(in.VehicleID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &Reservation{
		ID:         uuid.NewString(),
		VehicleID:  v.ID,
		UserID:     act.ID,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		TotalPrice: float64(days) * v.PricePerDay,
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Transition 按状态机推进预订，并联动维护车辆状态：
//
//	pending  --approve-->  active     车辆 -> rented   （仅管理员）
//	active   --complete--> completed  车辆 -> available（仅管理员）
//	pending/active --cancel--> cancelled  车辆若为 rented 则回到 available
//	                                      （预订归属人 / 管理员 / Master）
//
// 预订更新与车辆更新在同一事务内，status 条件更新保证并发下两者要么
// 都生效要么都不生效；竞争失败返回 ErrConflict，可由调用方重试。
func (s *Service) Transition(ctx context.Context, act actor.Actor, id string, action Action) (*Reservation, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	target, ok := action.Target()
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	res, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCancel:
		if !actor.CanPerform(act, actor.ActionCancelReservation, &actor.Resource{OwnerID: res.UserID}) {
			return nil, actor.ErrNotAuthorized
		}
	default:
		if !actor.CanPerform(act, actor.ActionManageReservations, nil) {
			return nil, actor.ErrNotAuthorized
		}
	}

	from := res.Status
	now := time.Now()
	updated := *res
	if err := ApplyTransition(&updated, target, now); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := map[string]interface{}{
			"status":     updated.Status,
			"updated_at": now,
		}
		switch target {
		case StatusActive:
			cols["approved_at"] = updated.ApprovedAt
		case StatusCompleted:
			cols["completed_at"] = updated.CompletedAt
		case StatusCancelled:
			cols["cancelled_at"] = updated.CancelledAt
		}

		result := tx.Model(&Reservation{}).
			Where("id = ? AND status = ?", res.ID, from).
			Updates(cols)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 另一请求已经把状态改走了
			return ErrConflict
		}

		switch target {
		case StatusActive:
			return tx.Model(&vehicle.Vehicle{}).
				Where("id = ?", res.VehicleID).
				Update("status", vehicle.StatusRented).Error
		case StatusCompleted:
			return tx.Model(&vehicle.Vehicle{}).
				Where("id = ?", res.VehicleID).
				Update("status", vehicle.StatusAvailable).Error
		case StatusCancelled:
			// 只有真的租出过才需要放回；pending 取消不会动车辆状态
			return tx.Model(&vehicle.Vehicle{}).
				Where("id = ? AND status = ?", res.VehicleID, vehicle.StatusRented).
				Update("status", vehicle.StatusAvailable).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if act.IsAdmin() {
		s.audit.Record(ctx, act.Label(),
			fmt.Sprintf("reservation %s: %s", res.ID, action),
			fmt.Sprintf("vehicle %s, %s -> %s", res.VehicleID, from, target))
	}

	return s.Get(ctx, res.ID)
}

// Get 单条预订。
func (s *Service) Get(ctx context.Context, id string) (*Reservation, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	res, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListForUser 某账号的预订列表：本人或管理员可看。
func (s *Service) ListForUser(ctx context.Context, act actor.Actor, userID string) ([]Reservation, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionViewOwnReservations, nil) {
		return nil, actor.ErrNotAuthorized
	}
	userID = strings.TrimSpace(userID)
	if !act.IsAdmin() && act.ID != userID {
		return nil, actor.ErrNotAuthorized
	}
	return s.repo.ListForUser(ctx, userID)
}

// ListAll 全量预订（仅管理员）。
func (s *Service) ListAll(ctx context.Context, act actor.Actor, offset, limit int) ([]Reservation, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageReservations, nil) {
		return nil, 0, actor.ErrNotAuthorized
	}
	return s.repo.ListAll(ctx, offset, limit)
}

// CountByStatus 指定状态的预订数（仅管理员，后台概览用）。
func (s *Service) CountByStatus(ctx context.Context, act actor.Actor, status Status) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionManageReservations, nil) {
		return 0, actor.ErrNotAuthorized
	}
	return s.repo.CountByStatus(ctx, status)
}
