package reservation

import (
	"fmt"
	"time"
)

// AllowTransition 定义预订状态机的允许流转关系。
// pending -> active -> completed，pending/active 均可取消；
// completed / cancelled 为终态；不允许 pending 直接到 completed。
var AllowTransition = map[Status][]Status{
	StatusPending:   {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
// 同状态重复流转也视为非法（例如对 active 重复 approve）。
func CanTransition(from, to Status) bool {
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对预订应用状态变更，并维护关键时间字段。
func ApplyTransition(r *Reservation, to Status, now time.Time) error {
	if r == nil {
		return fmt.Errorf("reservation is nil")
	}
	from := r.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	r.Status = to

	switch to {
	case StatusActive:
		if r.ApprovedAt == nil {
			t := now
			r.ApprovedAt = &t
		}
	case StatusCompleted:
		if r.CompletedAt == nil {
			t := now
			r.CompletedAt = &t
		}
	case StatusCancelled:
		if r.CancelledAt == nil {
			t := now
			r.CancelledAt = &t
		}
	}
	return nil
}

// Action 对预订可执行的动作。
type Action string

const (
	ActionApprove  Action = "approve"  // pending -> active
	ActionComplete Action = "complete" // active -> completed
	ActionCancel   Action = "cancel"   // pending/active -> cancelled
)

// Target 动作对应的目标状态。未知动作返回 false。
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionApprove:
		return StatusActive, true
	case ActionComplete:
		return StatusCompleted, true
	case ActionCancel:
		return StatusCancelled, true
	default:
		return "", false
	}
}
