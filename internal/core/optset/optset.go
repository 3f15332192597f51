// Package optset 提供表驱动的整型选项集
//
// 传输私有选项集与套接字通用选项表都基于 Set 实现：
// 每个选项在创建时声明取值范围与默认值，值以 4 字节本机字节序整数传递。
package optset

import (
	"encoding/binary"
	"sync"

	"github.com/dep2p/go-sptransport/pkg/interfaces/transport"
)

// IntSize 整型选项值的字节长度
const IntSize = 4

// ============================================================================
//                              选项定义
// ============================================================================

// IntOption 整型选项定义
type IntOption struct {
	// ID 选项编号
	ID int

	// Name 选项名（仅用于日志）
	Name string

	// Min, Max 取值范围（闭区间）
	Min, Max int

	// Default 默认值
	Default int

	// ReadOnly 只读选项，SetOpt 返回 ErrOptionValue
	ReadOnly bool
}

// Bool 声明布尔选项（0/1）
func Bool(id int, name string, def bool) IntOption {
	d := 0
	if def {
		d = 1
	}
	return IntOption{ID: id, Name: name, Min: 0, Max: 1, Default: d}
}

// ============================================================================
//                              Set
// ============================================================================

// Set 整型选项集
type Set struct {
	mu        sync.RWMutex
	defs      map[int]IntOption
	values    map[int]int
	destroyed bool
}

var _ transport.OptionSet = (*Set)(nil)

// New 创建选项集，所有选项取默认值
func New(defs ...IntOption) *Set {
	s := &Set{
		defs:   make(map[int]IntOption, len(defs)),
		values: make(map[int]int, len(defs)),
	}
	for _, d := range defs {
		s.defs[d.ID] = d
		s.values[d.ID] = d.Default
	}
	return s
}

// Destroy 实现 transport.OptionSet
func (s *Set) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.values = nil
}

// SetOpt 实现 transport.OptionSet
func (s *Set) SetOpt(option int, value []byte) error {
	v, err := DecodeInt(value)
	if err != nil {
		if _, ok := s.def(option); !ok {
			return transport.ErrOptionNotFound
		}
		return err
	}
	return s.SetInt(option, v)
}

// GetOpt 实现 transport.OptionSet
func (s *Set) GetOpt(option int, buf []byte) (int, error) {
	v, err := s.Int(option)
	if err != nil {
		return 0, err
	}
	if len(buf) != IntSize {
		return 0, transport.ErrOptionSize
	}
	binary.NativeEndian.PutUint32(buf, uint32(int32(v)))
	return IntSize, nil
}

// SetInt 直接设置整型值
func (s *Set) SetInt(option int, v int) error {
	d, ok := s.def(option)
	if !ok {
		return transport.ErrOptionNotFound
	}
	if d.ReadOnly || v < d.Min || v > d.Max {
		return transport.ErrOptionValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return transport.ErrOptionNotFound
	}
	s.values[option] = v
	return nil
}

// Int 读取整型值
func (s *Set) Int(option int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.destroyed {
		return 0, transport.ErrOptionNotFound
	}
	v, ok := s.values[option]
	if !ok {
		return 0, transport.ErrOptionNotFound
	}
	return v, nil
}

// Options 返回已声明的选项编号
func (s *Set) Options() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	return ids
}

func (s *Set) def(option int) (IntOption, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.defs[option]
	return d, ok
}

// ============================================================================
//                              编解码
// ============================================================================

// EncodeInt 将整型编码为选项值
func EncodeInt(v int) []byte {
	buf := make([]byte, IntSize)
	binary.NativeEndian.PutUint32(buf, uint32(int32(v)))
	return buf
}

// DecodeInt 解码整型选项值
func DecodeInt(b []byte) (int, error) {
	if len(b) != IntSize {
		return 0, transport.ErrOptionSize
	}
	return int(int32(binary.NativeEndian.Uint32(b))), nil
}

// GetInt 通过 GetOpt 读取整型选项
func GetInt(set transport.OptionSet, option int) (int, error) {
	buf := make([]byte, IntSize)
	n, err := set.GetOpt(option, buf)
	if err != nil {
		return 0, err
	}
	return DecodeInt(buf[:n])
}
