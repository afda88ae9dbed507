package rs485

import "sync"

// Pool 按终端编号维护编码器，同一终端共用一个序号计数器
type Pool struct {
	mu       sync.Mutex
	text     *TextEncoder
	encoders map[string]*Encoder
}

// NewPool 创建编码器池
func NewPool(te *TextEncoder) *Pool {
	if te == nil {
		te = DefaultText
	}
	return &Pool{text: te, encoders: make(map[string]*Encoder)}
}

// Get 获取终端编码器。
// 规格变化时重建并重置序号；仅地址变化时换用新地址，沿用原序号计数器。
func (p *Pool) Get(key string, profile Profile, opts ...Option) *Encoder {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts = append([]Option{WithTextEncoder(p.text)}, opts...)
	e := NewEncoder(profile, opts...)
	if cur, ok := p.encoders[key]; ok && cur.profile.Name == profile.Name {
		if cur.address == e.address {
			return cur
		}
		e.seq = cur.seq
	}
	p.encoders[key] = e
	return e
}

// Len 已缓存的编码器数量
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.encoders)
}
