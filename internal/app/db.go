package app

import (
	"context"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/migrate"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/gormrepo"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
	pgstorage "github.com/taoyao-code/park-rs485/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行内置迁移
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if cfg.AutoMigrate {
		if err = (migrate.Runner{}).Up(ctx, dbpool); err != nil {
			log.Error("db migrate error", zap.Error(err))
			dbpool.Close()
			return nil, err
		}
		log.Info("db migrations applied")
	}
	return dbpool, nil
}

// Stores 一体机登记与下发流水存储
type Stores struct {
	Kiosks   storage.KioskRepo
	Dispatch storage.DispatchRepo
}

// NewStores dbpool 为 nil 时使用内存存储并从 seedPath 导入；否则 gorm 管理一体机、pgx 写流水。
// 数据库模式下种子文件同样导入（按 code 覆盖）。
func NewStores(ctx context.Context, dbpool *pgxpool.Pool, seedPath, defaultSink string, log *zap.Logger) (*Stores, error) {
	var seed []models.Kiosk
	if seedPath != "" {
		ks, err := storage.LoadKioskSeed(seedPath, defaultSink)
		switch {
		case err == nil:
			seed = ks
			log.Info("kiosk seed loaded", zap.String("path", seedPath), zap.Int("kiosks", len(ks)))
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("kiosk seed not found", zap.String("path", seedPath))
		default:
			return nil, err
		}
	}

	if dbpool == nil {
		return &Stores{
			Kiosks:   storage.NewMemoryKioskRepo(seed...),
			Dispatch: storage.NewMemoryDispatchRepo(1000),
		}, nil
	}

	db, err := gormrepo.Open(dbpool)
	if err != nil {
		return nil, err
	}
	kiosks := gormrepo.New(db)
	for i := range seed {
		if err := kiosks.Upsert(ctx, &seed[i]); err != nil {
			return nil, err
		}
	}
	return &Stores{
		Kiosks:   kiosks,
		Dispatch: &pgstorage.DispatchLog{Pool: dbpool},
	}, nil
}
