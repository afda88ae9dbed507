package rs485

import "sync"

// Sequence 帧序号（单字节，溢出回绕），每个编码器独占一个
type Sequence struct {
	mu   sync.Mutex
	next byte
}

// NewSequence 创建序号计数器
func NewSequence(initial byte) *Sequence {
	return &Sequence{next: initial}
}

// Peek 下一个将被使用的序号
func (s *Sequence) Peek() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Reserve 连续占用 n 个序号，返回第一个
func (s *Sequence) Reserve(n int) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.next
	s.next += byte(n)
	return first
}

// Reset 重置序号
func (s *Sequence) Reset(v byte) {
	s.mu.Lock()
	s.next = v
	s.mu.Unlock()
}
