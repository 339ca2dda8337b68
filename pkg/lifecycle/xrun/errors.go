package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 表示因收到系统信号而终止。
	ErrSignal = errors.New("received signal")

	// ErrNilFunc 服务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil service func")

	// ErrNilService Service 为 nil。
	ErrNilService = errors.New("xrun: nil service")

	// ErrNilReopener Register 的 Reopener 为 nil。
	ErrNilReopener = errors.New("xrun: nil reopener")
)

// SignalError 包含触发终止的信号。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Printf("received signal: %v\n", sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

// Error 实现 error 接口。
func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Is 支持 errors.Is(err, ErrSignal)。
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

// Unwrap 返回 ErrSignal。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
