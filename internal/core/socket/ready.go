package socket

import itf "github.com/dep2p/go-sptransport/pkg/interfaces/transport"

// readyList 就绪管道列表
//
// next 返回优先级数值最小的第一条管道；同优先级内靠 rotate 轮转。
type readyList struct {
	pipes []itf.Pipe
	prio  func(itf.Pipe) int
}

func (l *readyList) add(p itf.Pipe) {
	if l.index(p) >= 0 {
		return
	}
	l.pipes = append(l.pipes, p)
}

func (l *readyList) remove(p itf.Pipe) {
	if i := l.index(p); i >= 0 {
		l.pipes = append(l.pipes[:i], l.pipes[i+1:]...)
	}
}

// rotate 将 p 移到列表末尾
func (l *readyList) rotate(p itf.Pipe) {
	l.remove(p)
	l.pipes = append(l.pipes, p)
}

func (l *readyList) next() itf.Pipe {
	var (
		best     itf.Pipe
		bestPrio int
	)
	for _, p := range l.pipes {
		if pr := l.prio(p); best == nil || pr < bestPrio {
			best, bestPrio = p, pr
		}
	}
	return best
}

func (l *readyList) len() int {
	return len(l.pipes)
}

func (l *readyList) index(p itf.Pipe) int {
	for i, cur := range l.pipes {
		if cur == p {
			return i
		}
	}
	return -1
}
