package xrotate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
)

// compressFile 将 src 以 gzip 压缩写入 dst，成功后删除 src。
//
// dst 以 O_EXCL 创建：已存在说明另一个进程正在处理，直接返回错误且不触碰 src。
// 写入失败时删除不完整的 dst，保留 src。
// 删除 src 失败时退化为截断。
func compressFile(src, dst string, mode os.FileMode) error {
	//#nosec G304 -- 路径由 Codec 生成
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("xrotate: open %s: %w", src, err)
	}

	//#nosec G304 -- 路径由 Codec 生成
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("xrotate: create %s: %w", dst, err)
	}

	err = writeGzip(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	_ = in.Close()
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("xrotate: compress %s: %w", src, err)
	}

	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if terr := os.Truncate(src, 0); terr != nil {
			return fmt.Errorf("xrotate: discard %s after compress: %w", src, errors.Join(err, terr))
		}
	}
	return nil
}

func writeGzip(w io.Writer, r io.Reader) error {
	zw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, r); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
