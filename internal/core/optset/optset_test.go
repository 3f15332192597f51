package optset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-sptransport/pkg/interfaces/transport"
)

func newTestSet() *Set {
	return New(
		IntOption{ID: 1, Name: "linger", Min: -1, Max: 1 << 30, Default: 1000},
		Bool(2, "nodelay", false),
		IntOption{ID: 3, Name: "protocol", Min: 0, Max: 0xffff, Default: 16, ReadOnly: true},
	)
}

// TestSet_RoundTrip 对每个可写选项验证 set 后 get 得到同一值
func TestSet_RoundTrip(t *testing.T) {
	s := newTestSet()

	cases := map[int]int{1: -1, 2: 1}
	for opt, v := range cases {
		require.NoError(t, s.SetOpt(opt, EncodeInt(v)))

		got, err := GetInt(s, opt)
		require.NoError(t, err)
		assert.Equal(t, v, got, "option %d", opt)
	}
	t.Log("✅ SetOpt/GetOpt 往返一致")
}

func TestSet_Defaults(t *testing.T) {
	s := newTestSet()

	v, err := s.Int(1)
	require.NoError(t, err)
	assert.Equal(t, 1000, v)

	v, err = GetInt(s, 3)
	require.NoError(t, err)
	assert.Equal(t, 16, v)
}

func TestSet_UnknownOption(t *testing.T) {
	s := newTestSet()

	err := s.SetOpt(99, EncodeInt(1))
	assert.ErrorIs(t, err, transport.ErrOptionNotFound)

	// 长度错误也优先报告未知选项
	err = s.SetOpt(99, []byte{1})
	assert.ErrorIs(t, err, transport.ErrOptionNotFound)

	_, err = s.GetOpt(99, make([]byte, IntSize))
	assert.ErrorIs(t, err, transport.ErrOptionNotFound)
}

func TestSet_SizeErrors(t *testing.T) {
	s := newTestSet()

	assert.ErrorIs(t, s.SetOpt(1, []byte{1, 2}), transport.ErrOptionSize)
	assert.ErrorIs(t, s.SetOpt(1, make([]byte, 8)), transport.ErrOptionSize)

	_, err := s.GetOpt(1, make([]byte, 2))
	assert.ErrorIs(t, err, transport.ErrOptionSize)
	_, err = s.GetOpt(1, make([]byte, 8))
	assert.ErrorIs(t, err, transport.ErrOptionSize, "与 SetOpt 一样只接受 IntSize 长度")

	// 失败的设置没有副作用
	v, err := s.Int(1)
	require.NoError(t, err)
	assert.Equal(t, 1000, v)
}

func TestSet_RangeAndReadOnly(t *testing.T) {
	s := newTestSet()

	assert.ErrorIs(t, s.SetInt(2, 2), transport.ErrOptionValue)
	assert.ErrorIs(t, s.SetInt(3, 32), transport.ErrOptionValue)
}

func TestSet_Destroy(t *testing.T) {
	s := newTestSet()
	s.Destroy()

	_, err := s.Int(1)
	assert.ErrorIs(t, err, transport.ErrOptionNotFound)
}

func TestDecodeInt_Negative(t *testing.T) {
	v, err := DecodeInt(EncodeInt(-42))
	require.NoError(t, err)
	assert.Equal(t, -42, v)
}
