package xfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// DefaultDirPerm 默认目录权限（gosec G301）。
const DefaultDirPerm = 0750

// EnsureDir 使用 [DefaultDirPerm] 确保 filename 的父目录存在。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 递归创建 filename 的父目录。
//
// 幂等：目录已存在（包括并发创建竞争中被别人建好）视为成功。
// 只读文件系统（EROFS）上若目录实际已存在同样视为成功。
// 路径上某一段是普通文件时返回 [ErrNotDirectory]。
// 已存在的目录不会被修改权限。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}

	err := os.MkdirAll(dir, perm)
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("create %s: %w", dir, ErrNotDirectory)
	}
	if errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.EROFS) {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			return nil
		}
		if statErr == nil {
			return fmt.Errorf("create %s: %w", dir, ErrNotDirectory)
		}
	}
	return fmt.Errorf("create %s: %w", dir, err)
}
