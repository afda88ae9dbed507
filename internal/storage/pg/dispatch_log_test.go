package pg

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/park-rs485/internal/migrate"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

var testDB *pgxpool.Pool

// TestMain 设置测试环境
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		ctx := context.Background()
		if pool, err := pgxpool.New(ctx, dsn); err == nil && pool.Ping(ctx) == nil {
			if err := (migrate.Runner{}).Up(ctx, pool); err == nil {
				testDB = pool
			}
		}
	}
	code := m.Run()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func setupDispatchLog(t *testing.T) *DispatchLog {
	if testDB == nil {
		t.Skip("测试数据库不可用，跳过测试")
	}
	t.Cleanup(func() {
		_, _ = testDB.Exec(context.Background(), "DELETE FROM dispatch_log WHERE kiosk_code LIKE 'TEST-%'")
	})
	return &DispatchLog{Pool: testDB}
}

func TestDispatchLog(t *testing.T) {
	repo := setupDispatchLog(t)
	ctx := context.Background()

	for _, scene := range []string{"entry", "exit"} {
		rec := &models.DispatchRecord{
			DispatchID: uuid.NewString(),
			KioskCode:  "TEST-K1",
			Scene:      scene,
			Sink:       models.SinkInline,
			FrameCount: 2,
			Envelope:   []byte(`{"error_num":0}`),
		}
		require.NoError(t, repo.Insert(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	recs, err := repo.ListRecent(ctx, "TEST-K1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "exit", recs[0].Scene)
	assert.JSONEq(t, `{"error_num":0}`, string(recs[0].Envelope))
}
