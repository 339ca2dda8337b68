// Package xdrain 提供有界排空的关闭协议。
//
// [Tracker] 登记进行中的操作。Shutdown 先拒绝新操作，然后每 10ms 检查一次
// 活跃数，直到归零或达到 5 秒上限（或 ctx 结束），最后恰好执行一次 teardown，
// 并把排空期间观察到的第一个操作错误交给它。
//
// 到达上限时仍在进行的操作不会被取消，它们在 teardown 之后产生的错误被丢弃。
// 超时只记录日志，不作为错误返回。
//
//	t := xdrain.New(xdrain.WithName("file:/var/log/app.log"))
//	err := t.Do(func() error { return w.Write(p) })
//	...
//	err = t.Shutdown(ctx, func(first error) error {
//	    return errors.Join(first, w.Close())
//	})
package xdrain
