package actor

import "errors"

// ErrNotAuthorized 操作者无权执行请求的动作。各业务 Service 在
// CanPerform 拒绝后统一返回这个哨兵错误。
var ErrNotAuthorized = errors.New("not authorized")

// Action 策略可以裁决的动作集合。
type Action string

const (
	ActionViewCatalog         Action = "catalog.view"         // 浏览车辆目录
	ActionAddVehicle          Action = "vehicle.add"          // 新增车辆
	ActionManageVehicle       Action = "vehicle.manage"       // 编辑/删除车辆（资源=车辆归属人）
	ActionSetVehicleStatus    Action = "vehicle.set_status"   // 调整车辆运营状态
	ActionCreateReservation   Action = "reservation.create"   // 发起预订
	ActionViewOwnReservations Action = "reservation.view_own" // 查看自己的预订
	ActionCancelReservation   Action = "reservation.cancel"   // 取消预订（资源=预订归属人）
	ActionManageReservations  Action = "reservation.manage"   // 审批/完成/全量查看预订
	ActionManageUsers         Action = "user.manage"          // 封禁/授权/列表用户
	ActionViewAuditLog        Action = "audit.view"           // 查看审计日志
)

// Resource 动作作用的资源（目前只需要归属人）。nil 表示动作不针对具体资源。
type Resource struct {
	OwnerID string
}

// CanPerform 纯函数：判断 a 是否允许对 res 执行 action。
// 对任意 (actor, action, resource) 组合都有定义，无副作用；
// 所有写操作必须先通过这里再落库。
func CanPerform(a Actor, action Action, res *Resource) bool {
	// 管理员与 Master 对任何动作放行。
	if a.IsAdmin() {
		return true
	}

	switch action {
	case ActionViewCatalog:
		return true

	case ActionCreateReservation, ActionViewOwnReservations, ActionAddVehicle:
		return a.Authenticated()

	case ActionCancelReservation, ActionManageVehicle:
		// 普通账号只能处置归属于自己的资源。
		return a.Kind == KindUser && res != nil && res.OwnerID != "" && res.OwnerID == a.ID

	case ActionSetVehicleStatus, ActionManageReservations, ActionManageUsers, ActionViewAuditLog:
		return false

	default:
		return false
	}
}
