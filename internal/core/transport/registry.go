package transport

import (
	"fmt"
	"strings"
	"sync"

	itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"
	"github.com/dep2p/go-sptransport/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// lifecycleMu 全局初始化临界区
//
// 所有注册表的 Init/Term 都在此锁内执行。
var lifecycleMu sync.Mutex

// Registry 传输注册表
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*itf.Descriptor
	byID   map[int]*itf.Descriptor
	order  []*itf.Descriptor

	// refs 由 lifecycleMu 保护
	refs int
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*itf.Descriptor),
		byID:   make(map[int]*itf.Descriptor),
	}
}

// Register 注册传输
//
// 每个 ID 和协议名最多注册一次。注册表已激活时立即调用该传输的 Init。
func (r *Registry) Register(d *itf.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	r.mu.Lock()
	if _, ok := r.byID[d.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: id %d", itf.ErrTransportExists, d.ID)
	}
	if _, ok := r.byName[d.Name]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", itf.ErrTransportExists, d.Name)
	}
	r.byID[d.ID] = d
	r.byName[d.Name] = d
	r.order = append(r.order, d)
	r.mu.Unlock()

	if r.refs > 0 && d.Init != nil {
		d.Init()
	}
	logger.Info("传输已注册", "name", d.Name, "id", d.ID)
	return nil
}

// Lookup 按地址的协议前缀查找传输
//
// 地址格式为 "<name>://<rest>"，返回描述符和去掉前缀的地址。
func (r *Registry) Lookup(addr string) (*itf.Descriptor, string, error) {
	name, rest, err := SplitAddress(addr)
	if err != nil {
		return nil, "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", itf.ErrTransportNotFound, name)
	}
	return d, rest, nil
}

// ByID 按 ID 查找传输
func (r *Registry) ByID(id int) (*itf.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// Descriptors 按注册顺序返回所有传输
func (r *Registry) Descriptors() []*itf.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*itf.Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Acquire 增加库引用计数，第一次调用时初始化所有传输
func (r *Registry) Acquire() {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	r.refs++
	if r.refs > 1 {
		return
	}

	ds := r.Descriptors()
	for _, d := range ds {
		if d.Init != nil {
			d.Init()
		}
	}
	logger.Debug("传输已初始化", "count", len(ds))
}

// Release 减少库引用计数，计数归零时按逆序终止所有传输
func (r *Registry) Release() error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if r.refs == 0 {
		return ErrNotAcquired
	}
	r.refs--
	if r.refs > 0 {
		return nil
	}

	ds := r.Descriptors()
	for i := len(ds) - 1; i >= 0; i-- {
		if ds[i].Term != nil {
			ds[i].Term()
		}
	}
	logger.Debug("传输已终止", "count", len(ds))
	return nil
}

// Refs 返回当前引用计数
func (r *Registry) Refs() int {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	return r.refs
}

// SplitAddress 拆分 "<name>://<rest>" 形式的地址
func SplitAddress(addr string) (name, rest string, err error) {
	name, rest, ok := strings.Cut(addr, "://")
	if !ok || name == "" || rest == "" {
		return "", "", fmt.Errorf("%w: %q", itf.ErrInvalidAddress, addr)
	}
	return name, rest, nil
}
