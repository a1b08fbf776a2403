package auditlog

import (
	"context"
	"time"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/common/logger"
	"github.com/CarLinkRent/CarLinkRent/internal/common/middleware"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recorder 管理操作的审计入口。
// 约定：审计写入失败不回滚、不上抛，只打告警日志；
// 连续失败时熔断器会短路后续写入，避免拖慢业务请求。
type Recorder struct {
	repo    *Repo
	log     logger.Logger
	breaker *middleware.CircuitBreaker
}

func NewRecorder(db *gorm.DB, log logger.Logger) *Recorder {
	return &Recorder{
		repo:    NewRepo(db),
		log:     log,
		breaker: middleware.NewCircuitBreaker("auditlog", 5, 30*time.Second),
	}
}

// Record 追加一条审计记录。永不返回错误。
func (r *Recorder) Record(ctx context.Context, actorLabel, action, details string) {
	if r == nil || r.repo == nil {
		return
	}
	err := r.breaker.Call(ctx, func() error {
		return r.repo.Append(ctx, &Entry{
			ID:         uuid.NewString(),
			ActorLabel: actorLabel,
			Action:     action,
			Details:    details,
		})
	})
	if err != nil && r.log != nil {
		r.log.WithFields(map[string]interface{}{
			"actor":  actorLabel,
			"action": action,
			"error":  err.Error(),
		}).Warn("audit log write failed")
	}
}

// Recent 管理后台查看最近的审计记录。
func (r *Recorder) Recent(ctx context.Context, act actor.Actor, limit int) ([]Entry, error) {
	if !actor.CanPerform(act, actor.ActionViewAuditLog, nil) {
		return nil, actor.ErrNotAuthorized
	}
	return r.repo.Recent(ctx, limit)
}
