package socket

import (
	"fmt"

	"github.com/dep2p/go-sptransport/internal/core/optset"
	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/types"
)

// ============================================================================
//                              选项读写
// ============================================================================

// GetOption 实现 transport.Socket
//
// level 0 为套接字级；负数为传输级，对应传输的选项集在首次访问时创建。
func (s *Socket) GetOption(level types.OptionLevel, option int, buf []byte) (int, error) {
	set, err := s.optionSet(level)
	if err != nil {
		return 0, err
	}
	return set.GetOpt(option, buf)
}

// SetOption 设置选项，只影响之后创建的端点
func (s *Socket) SetOption(level types.OptionLevel, option int, value []byte) error {
	set, err := s.optionSet(level)
	if err != nil {
		return err
	}
	return set.SetOpt(option, value)
}

// GetIntOption 读取整数选项
func (s *Socket) GetIntOption(level types.OptionLevel, option int) (int, error) {
	set, err := s.optionSet(level)
	if err != nil {
		return 0, err
	}
	return optset.GetInt(set, option)
}

// SetIntOption 设置整数选项
func (s *Socket) SetIntOption(level types.OptionLevel, option int, v int) error {
	return s.SetOption(level, option, optset.EncodeInt(v))
}

func (s *Socket) optionSet(level types.OptionLevel) (itf.OptionSet, error) {
	if level == types.LevelSocket {
		return s.opts, nil
	}

	s.optMu.Lock()
	defer s.optMu.Unlock()

	if set, ok := s.tropts[int(level)]; ok {
		return set, nil
	}
	desc, ok := s.reg.ByID(int(level))
	if !ok || desc.OptSet == nil {
		return nil, fmt.Errorf("%w: level %d", itf.ErrOptionNotFound, int(level))
	}
	set := desc.OptSet()
	s.tropts[int(level)] = set
	return set, nil
}
