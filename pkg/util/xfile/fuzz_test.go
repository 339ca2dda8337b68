package xfile

import (
	"path/filepath"
	"strings"
	"testing"
)

func FuzzSanitizePath(f *testing.F) {
	for _, s := range []string{"/var/log/app.log", "", ".", "..", "../../etc/passwd", "a/b/../c.log", "日志.log", "\\x\\y", "/a/\x00b"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		got, err := SanitizePath(input)
		if err != nil {
			return
		}
		if got != filepath.Clean(got) {
			t.Errorf("SanitizePath(%q) = %q 未规范化", input, got)
		}
		if hasDotDotSegment(got) {
			t.Errorf("SanitizePath(%q) = %q 仍含穿越段", input, got)
		}
	})
}

func FuzzSafeJoin(f *testing.F) {
	for _, s := range []string{"app.log", "a/b.log", "../x", "/abs", "..config", "a/../../b", "C:\\x", ""} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		const base = "/var/log"
		got, err := SafeJoin(base, input)
		if err != nil {
			return
		}
		if !strings.HasPrefix(got, base+string(filepath.Separator)) {
			t.Errorf("SafeJoin(%q, %q) = %q 逃逸出 base", base, input, got)
		}
	})
}
