package eventbus

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*subscriptionSettings)

// EmitterOpt 发射器选项
type EmitterOpt func(*emitterSettings)

type subscriptionSettings struct {
	Buffer int
}

type emitterSettings struct {
	Stateful bool
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *subscriptionSettings) {
		s.Buffer = size
	}
}

// Stateful 设置发射器为有状态模式
func Stateful() EmitterOpt {
	return func(s *emitterSettings) {
		s.Stateful = true
	}
}
