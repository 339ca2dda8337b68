//go:build unix

package xsys

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// 测试替换点，替换时不可并行
var (
	getrlimit = unix.Getrlimit
	setrlimit = unix.Setrlimit
)

var limitMu sync.Mutex

// FileLimit 返回 RLIMIT_NOFILE 的 soft 与 hard 值。
func FileLimit() (soft, hard uint64, err error) {
	var r unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		return 0, 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	return r.Cur, r.Max, nil
}

// EnsureFileLimit 让 soft limit 至少为 want（受 hard limit 约束），返回生效后的 soft 值。
// 返回值小于 want 说明 hard limit 不足，需要运维侧调整。
func EnsureFileLimit(want uint64) (uint64, error) {
	if want == 0 {
		return 0, ErrInvalidFileLimit
	}
	limitMu.Lock()
	defer limitMu.Unlock()

	var r unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		return 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	next := target(want, r.Cur, r.Max)
	if next == r.Cur {
		return r.Cur, nil
	}
	r.Cur = next
	if err := setrlimit(unix.RLIMIT_NOFILE, &r); err != nil {
		return 0, fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return next, nil
}
