package xdrain

import "errors"

var (
	// ErrDraining 表示已开始关闭，不再接受新操作。
	ErrDraining = errors.New("xdrain: draining, operation rejected")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xdrain: nil context")
)
