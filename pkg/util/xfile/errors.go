package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（目录路径、非绝对 base 等）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示路径包含 ".." 路径段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrPathEscaped 表示拼接结果超出了 base 目录。
	ErrPathEscaped = errors.New("xfile: path escapes base directory")

	// ErrNullByte 表示路径中包含空字节。内核会在空字节处截断路径。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 表示目录权限缺少所有者执行位。
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")

	// ErrNotDirectory 表示父路径上某一段已作为普通文件存在。
	ErrNotDirectory = errors.New("xfile: parent path exists and is not a directory")
)
