package transport

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
)

// countingDescriptor 记录 Init/Term 次数的描述符
func countingDescriptor(name string, id int, inits, terms *atomic.Int32) *itf.Descriptor {
	return &itf.Descriptor{
		Name:    name,
		ID:      id,
		Init:    func() { inits.Add(1) },
		Term:    func() { terms.Add(1) },
		Bind:    func(itf.Endpoint) error { return nil },
		Connect: func(itf.Endpoint) error { return nil },
	}
}

func TestRegistry_Register(t *testing.T) {
	var inits, terms atomic.Int32
	r := NewRegistry()

	require.NoError(t, r.Register(countingDescriptor("fake", -10, &inits, &terms)))

	t.Run("重复 ID", func(t *testing.T) {
		err := r.Register(countingDescriptor("other", -10, &inits, &terms))
		assert.ErrorIs(t, err, itf.ErrTransportExists)
	})

	t.Run("重复名称", func(t *testing.T) {
		err := r.Register(countingDescriptor("fake", -11, &inits, &terms))
		assert.ErrorIs(t, err, itf.ErrTransportExists)
	})

	t.Run("不完整描述符", func(t *testing.T) {
		err := r.Register(&itf.Descriptor{Name: "x", ID: -12})
		assert.ErrorIs(t, err, itf.ErrInvalidDescriptor)

		err = r.Register(countingDescriptor("pos", 3, &inits, &terms))
		assert.ErrorIs(t, err, itf.ErrInvalidDescriptor)
	})

	d, ok := r.ByID(-10)
	require.True(t, ok)
	assert.Equal(t, "fake", d.Name)
	assert.Len(t, r.Descriptors(), 1)

	t.Log("✅ 注册表拒绝重复注册")
}

func TestRegistry_Lookup(t *testing.T) {
	var inits, terms atomic.Int32
	r := NewRegistry()
	require.NoError(t, r.Register(countingDescriptor("fake", -10, &inits, &terms)))

	d, rest, err := r.Lookup("fake://127.0.0.1:1")
	require.NoError(t, err)
	assert.Equal(t, -10, d.ID)
	assert.Equal(t, "127.0.0.1:1", rest)

	_, _, err = r.Lookup("nope://x")
	assert.ErrorIs(t, err, itf.ErrTransportNotFound)

	for _, bad := range []string{"fake", "://x", "fake://"} {
		_, _, err = r.Lookup(bad)
		assert.ErrorIs(t, err, itf.ErrInvalidAddress, bad)
	}
}

func TestRegistry_AcquireRelease(t *testing.T) {
	var inits, terms atomic.Int32
	r := NewRegistry()
	require.NoError(t, r.Register(countingDescriptor("fake", -10, &inits, &terms)))

	r.Acquire()
	r.Acquire()
	assert.Equal(t, int32(1), inits.Load(), "Init 只调用一次")

	require.NoError(t, r.Release())
	assert.Equal(t, int32(0), terms.Load())
	require.NoError(t, r.Release())
	assert.Equal(t, int32(1), terms.Load(), "最后一次 Release 调用 Term")

	assert.ErrorIs(t, r.Release(), ErrNotAcquired)
}

func TestRegistry_RegisterWhileActive(t *testing.T) {
	var inits, terms atomic.Int32
	r := NewRegistry()
	r.Acquire()

	require.NoError(t, r.Register(countingDescriptor("late", -20, &inits, &terms)))
	assert.Equal(t, int32(1), inits.Load())

	require.NoError(t, r.Release())
	assert.Equal(t, int32(1), terms.Load())
}

func TestRegistry_TermOrderIsReversed(t *testing.T) {
	var order []string
	r := NewRegistry()
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, r.Register(&itf.Descriptor{
			Name:    name,
			ID:      -100 - i,
			Init:    func() { order = append(order, "init:"+name) },
			Term:    func() { order = append(order, "term:"+name) },
			Bind:    func(itf.Endpoint) error { return nil },
			Connect: func(itf.Endpoint) error { return nil },
		}))
	}

	r.Acquire()
	require.NoError(t, r.Release())
	assert.Equal(t, []string{
		"init:a", "init:b", "init:c",
		"term:c", "term:b", "term:a",
	}, order)
}

// TestRegistry_ConcurrentAcquire 并发打开关闭，Init/Term 恰好各一次
func TestRegistry_ConcurrentAcquire(t *testing.T) {
	var inits, terms atomic.Int32
	r := NewRegistry()
	require.NoError(t, r.Register(countingDescriptor("fake", -10, &inits, &terms)))

	r.Acquire()

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			r.Acquire()
			return r.Release()
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), inits.Load())
	assert.Equal(t, int32(0), terms.Load())

	require.NoError(t, r.Release())
	assert.Equal(t, int32(1), terms.Load())
	assert.Zero(t, r.Refs())
}

func TestSplitAddress(t *testing.T) {
	name, rest, err := SplitAddress("inproc://a/b")
	require.NoError(t, err)
	assert.Equal(t, "inproc", name)
	assert.Equal(t, "a/b", rest)
}
