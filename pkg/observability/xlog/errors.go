package xlog

import "errors"

var (
	// ErrUnknownLevel 无法识别的级别名称。
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 输出格式不是 text 或 json。
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrNilOutput SetOutput 传入 nil。
	ErrNilOutput = errors.New("xlog: nil output")
)
