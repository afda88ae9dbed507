package storage

import (
	"context"
	"errors"

	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("storage: not found")

// KioskRepo 一体机登记表。
// 约束：
// - Code 唯一，Upsert 以 Code 为冲突键
// - 找不到时返回 ErrNotFound（可用 errors.Is 判断）
type KioskRepo interface {
	GetByCode(ctx context.Context, code string) (*models.Kiosk, error)
	List(ctx context.Context, limit, offset int) ([]models.Kiosk, error)
	Upsert(ctx context.Context, k *models.Kiosk) error
}

// DispatchRepo 下发流水
type DispatchRepo interface {
	Insert(ctx context.Context, rec *models.DispatchRecord) error
	ListRecent(ctx context.Context, kioskCode string, limit int) ([]models.DispatchRecord, error)
}
