package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// DispatchLog 下发流水（dispatch_log 表）
type DispatchLog struct {
	Pool *pgxpool.Pool
}

// Insert 写入一条下发记录，回填 ID 与 CreatedAt
func (r *DispatchLog) Insert(ctx context.Context, rec *models.DispatchRecord) error {
	const q = `INSERT INTO dispatch_log (dispatch_id, kiosk_code, scene, sink, target, frame_count, envelope, error, created_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
               RETURNING id, created_at`
	err := r.Pool.QueryRow(ctx, q,
		rec.DispatchID, rec.KioskCode, rec.Scene, rec.Sink, rec.Target, rec.FrameCount, rec.Envelope, rec.Error,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dispatch log: %w", err)
	}
	return nil
}

// ListRecent 某台一体机最近的下发记录（新的在前）
func (r *DispatchLog) ListRecent(ctx context.Context, kioskCode string, limit int) ([]models.DispatchRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `SELECT id, dispatch_id::text, kiosk_code, scene, sink, target, frame_count, envelope, error, created_at
               FROM dispatch_log WHERE kiosk_code=$1
               ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, kioskCode, limit)
	if err != nil {
		return nil, fmt.Errorf("query dispatch log: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DispatchRecord, error) {
		var rec models.DispatchRecord
		err := row.Scan(&rec.ID, &rec.DispatchID, &rec.KioskCode, &rec.Scene, &rec.Sink, &rec.Target,
			&rec.FrameCount, &rec.Envelope, &rec.Error, &rec.CreatedAt)
		return rec, err
	})
}
