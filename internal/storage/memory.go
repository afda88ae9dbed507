package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// MemoryKioskRepo 未启用数据库时使用的内存登记表
type MemoryKioskRepo struct {
	mu     sync.RWMutex
	kiosks map[string]models.Kiosk
	nextID int64
}

// NewMemoryKioskRepo 创建内存登记表
func NewMemoryKioskRepo(seed ...models.Kiosk) *MemoryKioskRepo {
	r := &MemoryKioskRepo{kiosks: make(map[string]models.Kiosk)}
	for i := range seed {
		_ = r.Upsert(context.Background(), &seed[i])
	}
	return r
}

func (r *MemoryKioskRepo) GetByCode(_ context.Context, code string) (*models.Kiosk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kiosks[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

// List 按 Code 排序
func (r *MemoryKioskRepo) List(_ context.Context, limit, offset int) ([]models.Kiosk, error) {
	r.mu.RLock()
	out := make([]models.Kiosk, 0, len(r.kiosks))
	for _, k := range r.kiosks {
		out = append(out, k)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if offset >= len(out) {
		return []models.Kiosk{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryKioskRepo) Upsert(_ context.Context, k *models.Kiosk) error {
	if k.Code == "" {
		return fmt.Errorf("kiosk code is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if old, ok := r.kiosks[k.Code]; ok {
		k.ID, k.CreatedAt = old.ID, old.CreatedAt
	} else {
		r.nextID++
		k.ID, k.CreatedAt = r.nextID, now
	}
	k.UpdatedAt = now
	r.kiosks[k.Code] = *k
	return nil
}

// MemoryDispatchRepo 内存流水，每台一体机保留最近 keep 条
type MemoryDispatchRepo struct {
	mu     sync.Mutex
	keep   int
	nextID int64
	byCode map[string][]models.DispatchRecord
}

func NewMemoryDispatchRepo(keep int) *MemoryDispatchRepo {
	if keep <= 0 {
		keep = 100
	}
	return &MemoryDispatchRepo{keep: keep, byCode: make(map[string][]models.DispatchRecord)}
}

func (r *MemoryDispatchRepo) Insert(_ context.Context, rec *models.DispatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	list := append(r.byCode[rec.KioskCode], *rec)
	if len(list) > r.keep {
		list = list[len(list)-r.keep:]
	}
	r.byCode[rec.KioskCode] = list
	return nil
}

// ListRecent 最新的在前
func (r *MemoryDispatchRepo) ListRecent(_ context.Context, kioskCode string, limit int) ([]models.DispatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byCode[kioskCode]
	out := make([]models.DispatchRecord, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type kioskSeedFile struct {
	Kiosks []models.Kiosk `yaml:"kiosks"`
}

// LoadKioskSeed 读取一体机登记 YAML；未配置通道的使用 defaultSink（为空时 inline）
func LoadKioskSeed(path, defaultSink string) ([]models.Kiosk, error) {
	if defaultSink == "" {
		defaultSink = models.SinkInline
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f kioskSeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse kiosk seed %s: %w", path, err)
	}
	for i := range f.Kiosks {
		k := &f.Kiosks[i]
		if k.Code == "" {
			return nil, fmt.Errorf("kiosk seed %s: entry %d has no code", path, i)
		}
		if k.Sink == "" {
			k.Sink = defaultSink
		}
		if k.Direction == "" {
			k.Direction = models.DirectionEntry
		}
		if k.ScreenType == 0 {
			k.ScreenType = 4
		}
	}
	return f.Kiosks, nil
}
