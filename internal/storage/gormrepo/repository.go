package gormrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// Repository 基于 GORM 的一体机登记表
type Repository struct {
	db *gorm.DB
}

// New 返回一个使用给定 *gorm.DB 的 KioskRepo 实例。
func New(db *gorm.DB) storage.KioskRepo {
	return &Repository{db: db}
}

// Open 复用 pgx 连接池创建 *gorm.DB
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// GetByCode 按编码查询
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Kiosk, error) {
	var k models.Kiosk
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// List 按编码排序分页
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Kiosk, error) {
	var out []models.Kiosk
	q := r.db.WithContext(ctx).Order("code ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert 以 code 为冲突键插入或更新
func (r *Repository) Upsert(ctx context.Context, k *models.Kiosk) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "screen_type", "profile", "address", "gateway_id", "sink", "direction", "updated_at",
			}),
		}).
		Create(k).Error
}
