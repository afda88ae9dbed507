package health

import (
	"sort"
	"sync"
)

// Readiness 启动阶段就绪标记（数据库、下发通道等按名登记）
type Readiness struct {
	mu    sync.RWMutex
	parts map[string]bool
}

func New(parts ...string) *Readiness {
	r := &Readiness{parts: make(map[string]bool, len(parts))}
	for _, p := range parts {
		r.parts[p] = false
	}
	return r
}

// Set 标记子系统就绪状态；未登记的名称自动登记
func (r *Readiness) Set(part string, ready bool) {
	r.mu.Lock()
	r.parts[part] = ready
	r.mu.Unlock()
}

// Ready 全部子系统为 true；未登记任何子系统时为 true
func (r *Readiness) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ok := range r.parts {
		if !ok {
			return false
		}
	}
	return true
}

// Pending 尚未就绪的子系统
func (r *Readiness) Pending() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, ok := range r.parts {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
