// xlogd 把标准输入的日志行按配置分发到轮转文件、按 key 分组的文件池、
// 控制台和 HTTP Event Collector。
//
// 用法:
//
//	xlogd [全局选项] <命令> [命令参数]
//
// 命令:
//
//	run       按配置运行，逐行读取标准输入作为 INFO 事件发布
//	inspect   列出目录中被轮转命名规则识别的文件，标出断号的备份链
//
// 运行期行为:
//
//	SIGHUP         重新打开所有文件 sink（配合外部 logrotate 使用）
//	SIGINT/TERM    停止读取输入，排空所有 sink 后退出
//	配置文件变更    热更新各 sink 的级别与诊断日志级别
//
// 退出码:
//
//	0: 正常退出（输入结束或收到终止信号）
//	1: 运行失败
//	2: 参数错误
//
// 示例:
//
//	tail -F app.out | xlogd run --config /etc/xlogd.yaml --logger app
//	xlogd inspect /var/log/app.log --pattern 2006-01-02 --compress
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// usageError 参数错误，映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xlogd",
		Usage:     "日志分发与文件轮转守护进程",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			createRunCommand(),
			createInspectCommand(),
		},
		// 退出码统一由 run 映射，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 在解析阶段产生的错误，详情已写到 stderr。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "flag provided but not defined") ||
		strings.Contains(msg, "Required flag") ||
		strings.Contains(msg, "invalid value")
}
