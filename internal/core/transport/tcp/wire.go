package tcp

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-sptransport/pkg/types"
)

const (
	headerSize = 8
	lengthSize = 8

	// maxFrameSize 不设 RCVMAXSIZE 时的长度上限
	maxFrameSize uint64 = 1 << 40

	// preallocSize 超过该长度的消息随数据到达逐步扩容
	preallocSize uint64 = 1 << 20
)

// encodeHeader 编码协议头部
func encodeHeader(st types.SocketType) []byte {
	h := []byte{0, 'S', 'P', 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(h[4:6], uint16(st))
	return h
}

// decodeHeader 解析对端头部，返回对端套接字类型
func decodeHeader(h []byte) (types.SocketType, error) {
	if len(h) != headerSize || h[0] != 0 || h[1] != 'S' || h[2] != 'P' || h[3] != 0 ||
		h[6] != 0 || h[7] != 0 {
		return 0, fmt.Errorf("%w: % x", ErrBadHeader, h)
	}
	return types.SocketType(binary.BigEndian.Uint16(h[4:6])), nil
}

// writeFrame 写入一条消息并刷新
func writeFrame(w *bufio.Writer, msg *types.Message) error {
	var n [lengthSize]byte
	binary.BigEndian.PutUint64(n[:], uint64(msg.Size()))
	if _, err := w.Write(n[:]); err != nil {
		return err
	}
	if _, err := w.Write(msg.Header); err != nil {
		return err
	}
	if _, err := w.Write(msg.Body); err != nil {
		return err
	}
	return w.Flush()
}

// readFrame 读取一条消息
//
// max 为负数时只受 maxFrameSize 限制。
func readFrame(r io.Reader, max int) (*types.Message, error) {
	var n [lengthSize]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint64(n[:])
	if max >= 0 && size > uint64(max) {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, size, max)
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, size, maxFrameSize)
	}

	if size <= preallocSize {
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return types.NewMessage(body), nil
	}

	// 长度由对端声明，不能据此一次性分配
	var body bytes.Buffer
	if _, err := io.CopyN(&body, r, int64(size)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return types.NewMessage(body.Bytes()), nil
}
