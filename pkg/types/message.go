package types

// ============================================================================
//                              Message - 消息
// ============================================================================

// Message 一条完整的消息
//
// Header 为协议头（SP header），Body 为消息体。
// 由传输接收到的原始字节全部位于 Body 中，Header 为空；
// 只有进程内传输会交付已拆分好的消息（见 FlagParsed）。
type Message struct {
	Header []byte
	Body   []byte
}

// NewMessage 创建只有消息体的消息
func NewMessage(body []byte) *Message {
	return &Message{Body: body}
}

// Size 返回消息总字节数
func (m *Message) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Header) + len(m.Body)
}

// Merge 将 Header 合并进 Body
//
// 非 PARSED 的消息在交给协议层之前需要合并。
func (m *Message) Merge() {
	if len(m.Header) == 0 {
		return
	}
	merged := make([]byte, 0, len(m.Header)+len(m.Body))
	merged = append(merged, m.Header...)
	merged = append(merged, m.Body...)
	m.Header = nil
	m.Body = merged
}

// Bytes 返回线上格式（Header 后接 Body）
func (m *Message) Bytes() []byte {
	out := make([]byte, 0, m.Size())
	out = append(out, m.Header...)
	return append(out, m.Body...)
}

// Clone 深拷贝消息
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	return &Message{
		Header: append([]byte(nil), m.Header...),
		Body:   append([]byte(nil), m.Body...),
	}
}

// ============================================================================
//                              Flags - 管道操作结果标志
// ============================================================================

// Flags 管道 Send/Recv 的结果标志
//
// 两个标志互相正交，可以同时出现。
type Flags uint8

const (
	// FlagRelease 该方向暂时无法继续
	//
	// 返回此标志后，核心不得再调用同一方向，直到管道通过
	// Received/Sent 重新就绪。
	FlagRelease Flags = 1 << iota

	// FlagParsed 收到的消息已拆分为 Header 与 Body
	//
	// 只有进程内传输会设置此标志；未设置时套接字需要先合并消息。
	FlagParsed
)

// Released 是否包含 FlagRelease
func (f Flags) Released() bool {
	return f&FlagRelease != 0
}

// Parsed 是否包含 FlagParsed
func (f Flags) Parsed() bool {
	return f&FlagParsed != 0
}

// String 返回标志的字符串表示
func (f Flags) String() string {
	switch {
	case f.Released() && f.Parsed():
		return "release|parsed"
	case f.Released():
		return "release"
	case f.Parsed():
		return "parsed"
	default:
		return "none"
	}
}
