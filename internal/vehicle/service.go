package vehicle

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
	ErrNotFound      = errors.New("vehicle not found")
	ErrInvalidStatus = errors.New("invalid vehicle status")
	ErrInvalidSpec   = errors.New("invalid vehicle spec")
)

// Spec 新增/编辑车辆的入参。
type Spec struct {
	Brand       string
	Model       string
	Plate       string
	Year        int
	Km          float64
	PricePerDay float64
	ImageURL    string

	// OwnerID 仅管理员可指定；普通用户固定为自己。
	// nil 表示“不指定”：新增时落为平台自营，编辑时保持原归属——
	// 漏传字段不会把车辆意外改成平台自营。
	OwnerID *string
}

func (in Spec) validate() error {
	if strings.TrimSpace(in.Brand) == "" || strings.TrimSpace(in.Model) == "" {
		return fmt.Errorf("brand/model required: %w", ErrInvalidSpec)
	}
	if in.PricePerDay <= 0 {
		return fmt.Errorf("price_per_day must be positive: %w", ErrInvalidSpec)
	}
	return nil
}

// Service 车辆目录域的核心用例。
type Service struct {
	repo  *Repo
	audit *auditlog.Recorder
}

func NewService(repo *Repo, audit *auditlog.Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Add 新增车辆。普通用户只能登记归属自己的车辆；
// 管理员可以指定归属人，留空表示平台自营。
func (s *Service) Add(ctx context.Context, act actor.Actor, in Spec) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionAddVehicle, nil) {
		return nil, actor.ErrNotAuthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	owner := ""
	if in.OwnerID != nil {
		owner = strings.TrimSpace(*in.OwnerID)
	}
	if !act.IsAdmin() {
		owner = act.ID
	}

	v := &Vehicle{
		ID:          uuid.NewString(),
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Plate:       strings.TrimSpace(in.Plate),
		Year:        in.Year,
		Km:          in.Km,
		PricePerDay: in.PricePerDay,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Status:      StatusAvailable,
		OwnerID:     owner,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	if act.IsAdmin() {
		s.audit.Record(ctx, act.Label(),
			fmt.Sprintf("added vehicle: %s %s (%s)", v.Brand, v.Model, v.Plate), "")
	}
	return v, nil
}

// Edit 编辑车辆描述字段与价格。运营状态走 SetStatus，不在这里改。
func (s *Service) Edit(ctx context.Context, act actor.Actor, id string, in Spec) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanPerform(act, actor.ActionManageVehicle, &actor.Resource{OwnerID: v.OwnerID}) {
		return nil, actor.ErrNotAuthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	v.Brand = strings.TrimSpace(in.Brand)
	v.Model = strings.TrimSpace(in.Model)
	v.Plate = strings.TrimSpace(in.Plate)
	v.Year = in.Year
	v.Km = in.Km
	v.PricePerDay = in.PricePerDay
	v.ImageURL = strings.TrimSpace(in.ImageURL)
	if act.IsAdmin() && in.OwnerID != nil {
		v.OwnerID = strings.TrimSpace(*in.OwnerID)
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	if act.IsAdmin() {
		s.audit.Record(ctx, act.Label(), fmt.Sprintf("edited vehicle %s", v.ID), "")
	}
	return v, nil
}

// Remove 删除车辆（归属人或管理员）。
func (s *Service) Remove(ctx context.Context, act actor.Actor, id string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanPerform(act, actor.ActionManageVehicle, &actor.Resource{OwnerID: v.OwnerID}) {
		return actor.ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, v.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if act.IsAdmin() {
		s.audit.Record(ctx, act.Label(), fmt.Sprintf("removed vehicle %s", v.ID),
			fmt.Sprintf("%s %s (%s)", v.Brand, v.Model, v.Plate))
	}
	return nil
}

// SetStatus 调整运营状态（仅管理员）。状态值必须在固定集合内。
func (s *Service) SetStatus(ctx context.Context, act actor.Actor, id string, status Status) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !actor.CanPerform(act, actor.ActionSetVehicleStatus, nil) {
		return nil, actor.ErrNotAuthorized
	}
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Status = status
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, act.Label(), fmt.Sprintf("set vehicle %s status to %s", v.ID, status), "")
	return v, nil
}

// Get 单辆车详情（公开读）。
func (s *Service) Get(ctx context.Context, id string) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	v, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// List 目录查询（公开读）。
func (s *Service) List(ctx context.Context, f Filter) ([]Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if f.ExcludeStatus != "" && !ValidStatus(f.ExcludeStatus) {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, f)
}

// Brands 品牌列表（公开读）。
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.Brands(ctx)
}

// Count 车辆总数。
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("service not initialized")
	}
	return s.repo.Count(ctx)
}
