package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// errOutOfSequence --strict 下发现断号时返回。
var errOutOfSequence = errors.New("backup chain out of sequence")

func createInspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "列出主文件与备份，标出断号的备份链",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pattern", Usage: "日期布局（Go 时间格式）"},
			&cli.BoolFlag{Name: "keep-ext", Usage: "扩展名保留在末尾"},
			&cli.BoolFlag{Name: "always-date", Usage: "主文件名也带日期"},
			&cli.BoolFlag{Name: "compress", Usage: "备份为 .gz"},
			&cli.StringFlag{Name: "sep", Usage: "分隔符", Value: xrotate.DefaultSeparator},
			&cli.BoolFlag{Name: "strict", Usage: "发现断号时以退出码 1 结束"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usagef("inspect 需要且只需要一个路径参数")
			}
			path, err := xfile.ResolvePath(cmd.Args().First())
			if err != nil {
				return usagef("%v", err)
			}
			codec, err := xrotate.NewCodec(path, xrotate.CodecOptions{
				Separator:         cmd.String("sep"),
				DateLayout:        cmd.String("pattern"),
				KeepFileExt:       cmd.Bool("keep-ext"),
				AlwaysIncludeDate: cmd.Bool("always-date"),
				Compress:          cmd.Bool("compress"),
			})
			if err != nil {
				return usagef("%v", err)
			}
			report, err := inspect(codec)
			if err != nil {
				return err
			}
			if err := report.write(cmd.Root().Writer); err != nil {
				return err
			}
			if cmd.Bool("strict") && report.broken > 0 {
				return errOutOfSequence
			}
			return nil
		},
	}
}

type inspectEntry struct {
	xrotate.ParsedName
	Size       int64
	OutOfChain bool
}

type inspectReport struct {
	entries []inspectEntry
	broken  int
}

// inspect 读取编解码器所在目录，按从旧到新列出被识别的文件。
// 同一日期下的备份序号应从 1 连续递增，第一个缺口之后的序号都标为断号。
func inspect(codec *xrotate.Codec) (inspectReport, error) {
	dirents, err := os.ReadDir(codec.Dir())
	if err != nil {
		return inspectReport{}, err
	}
	var names []xrotate.ParsedName
	sizes := make(map[string]int64)
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		p, ok := codec.Parse(d.Name())
		if !ok {
			continue
		}
		names = append(names, p)
		if info, err := d.Info(); err == nil {
			sizes[d.Name()] = info.Size()
		}
	}
	xrotate.SortOldestFirst(names)

	// 每个日期组内已出现的序号
	present := make(map[string]map[int]bool)
	for _, p := range names {
		if present[p.Date] == nil {
			present[p.Date] = make(map[int]bool)
		}
		present[p.Date][p.Index] = true
	}
	firstGap := make(map[string]int, len(present))
	for date, idx := range present {
		n := 1
		for idx[n] {
			n++
		}
		firstGap[date] = n
	}

	var r inspectReport
	for _, p := range names {
		e := inspectEntry{ParsedName: p, Size: sizes[p.Name]}
		if p.Index > firstGap[p.Date] {
			e.OutOfChain = true
			r.broken++
		}
		r.entries = append(r.entries, e)
	}
	return r, nil
}

func (r inspectReport) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINDEX\tDATE\tGZ\tSIZE\tSTATUS")
	for _, e := range r.entries {
		status := "ok"
		if e.OutOfChain {
			status = "out-of-sequence"
		}
		date := e.Date
		if date == "" {
			date = "-"
		}
		gz := "-"
		if e.Compressed {
			gz = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			e.Name, e.Index, date, gz, humanize.IBytes(uint64(e.Size)), status)
	}
	fmt.Fprintf(tw, "\n%d entries, %d out of sequence\n", len(r.entries), r.broken)
	return tw.Flush()
}
