package xrotate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// candidates 返回参与本次轮转的文件，按从旧到新排序：
// 当前主文件，以及当前日期桶内的备份。
func (e *File) candidates() ([]ParsedName, error) {
	dir := e.codec.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xrotate: list %s: %w", dir, err)
	}
	live := e.codec.FormatBase(e.bucket, 0)

	var out []ParsedName
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		p, ok := e.codec.Parse(de.Name())
		if !ok {
			continue
		}
		if p.Index == 0 && p.Name != live {
			continue
		}
		if p.Index > 0 && p.Date != e.bucket {
			continue
		}
		out = append(out, p)
	}
	SortOldestFirst(out)
	return out, nil
}

// shiftBackups 将候选文件整体后移一位。
//
// 位置 i 从最旧（n-1）走到最新（0），位置 i 上的文件目标序号为 i+1：
//   - 源序号大于 i 说明链条有断档，该文件直接删除
//   - Backups 为 0 时主文件原地截断
//   - 目标序号在保留范围内则移动（主文件在开启压缩时压缩），否则删除
func (e *File) shiftBackups() error {
	cands, err := e.candidates()
	if err != nil {
		return err
	}
	dir := e.codec.Dir()
	n := len(cands)
	for i := n - 1; i >= 0; i-- {
		src := cands[n-1-i]
		srcPath := filepath.Join(dir, src.Name)

		if src.Index > i {
			if err := removeIfExists(srcPath); err != nil {
				return err
			}
			continue
		}

		target := e.codec.Format(e.bucket, i+1)
		if err := removeIfExists(target); err != nil {
			return err
		}

		switch {
		case i == 0 && e.cfg.Backups == 0:
			if err := os.Truncate(srcPath, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("xrotate: truncate %s: %w", srcPath, err)
			}
		case e.cfg.Backups == UnlimitedBackups || e.cfg.Backups > i:
			compress := i == 0 && e.cfg.Compress
			if err := moveFile(srcPath, target, compress, e.cfg.FileMode); err != nil {
				return err
			}
		default:
			if err := removeIfExists(srcPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("xrotate: remove %s: %w", path, err)
	}
	return nil
}

// moveFile 将 src 移动到 dst，可选压缩。src 不存在视为成功。
//
// 重命名失败（非不存在）时退化为复制后截断源文件。
func moveFile(src, dst string, compress bool, mode os.FileMode) error {
	if src == dst {
		return nil
	}
	if compress {
		return compressFile(src, dst, mode)
	}
	err := os.Rename(src, dst)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if cerr := copyTruncate(src, dst, mode); cerr != nil {
		return fmt.Errorf("xrotate: move %s: %w", src, errors.Join(err, cerr))
	}
	return nil
}

func copyTruncate(src, dst string, mode os.FileMode) error {
	//#nosec G304 -- 路径由 Codec 生成
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	//#nosec G304 -- 路径由 Codec 生成
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Truncate(src, 0)
}
