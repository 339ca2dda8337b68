package xsys

import "errors"

var (
	// ErrInvalidFileLimit 目标值为 0。
	ErrInvalidFileLimit = errors.New("xsys: file limit must be greater than 0")

	// ErrUnsupportedPlatform 当前平台没有 RLIMIT_NOFILE。
	ErrUnsupportedPlatform = errors.New("xsys: unsupported platform")
)
