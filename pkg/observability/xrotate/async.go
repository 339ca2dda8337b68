package xrotate

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/omeyang/xlogkit/pkg/util/xpool"
)

type asyncOp uint8

const (
	opWrite asyncOp = iota
	opRoll
	opReopen
)

type asyncTask struct {
	op   asyncOp
	data []byte
	done chan error
}

var _ Engine = (*AsyncFile)(nil)

// AsyncFile 异步轮转引擎。
//
// 所有写入、轮转、重开都经由单 worker 队列串行执行，提交顺序即执行顺序。
// 队列满时提交方阻塞，不丢数据。
type AsyncFile struct {
	file *File
	pool *xpool.Pool[asyncTask]

	mu     sync.Mutex
	closed bool
}

// NewAsyncFile 创建异步轮转引擎，选项与 [NewFile] 相同，另支持 [WithQueueSize]。
func NewAsyncFile(path string, opts ...Option) (*AsyncFile, error) {
	f, err := NewFile(path, opts...)
	if err != nil {
		return nil, err
	}
	a := &AsyncFile{file: f}
	pool, err := xpool.New(1, f.cfg.QueueSize, a.handle, xpool.WithName("xrotate:"+f.Filename()))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a.pool = pool
	return a, nil
}

func (a *AsyncFile) handle(t asyncTask) {
	var err error
	switch t.op {
	case opWrite:
		var n int
		n, err = a.file.Write(t.data)
		if n == len(t.data) {
			// 数据已落盘，轮转失败经 OnError 与 OnRoll 上报
			err = nil
		}
	case opRoll:
		err = a.file.Roll()
	case opReopen:
		err = a.file.Reopen()
	}
	t.done <- err
}

func (a *AsyncFile) submit(op asyncOp, data []byte) <-chan error {
	done := make(chan error, 1)
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		done <- ErrClosed
		return done
	}
	err := a.pool.SubmitWait(context.Background(), asyncTask{op: op, data: data, done: done})
	if errors.Is(err, xpool.ErrPoolStopped) {
		err = ErrClosed
	}
	if err != nil {
		done <- err
	}
	return done
}

// WriteAsync 提交写入并返回完成信号。p 会被复制，调用方可立即复用。
func (a *AsyncFile) WriteAsync(p []byte) <-chan error {
	return a.submit(opWrite, slices.Clone(p))
}

// Write 提交写入并等待完成。
//
// 只有数据未写入时才返回错误；轮转失败但数据已写入时返回 nil，
// 错误经 [WithOnError] 与 [WithOnRoll] 上报。
func (a *AsyncFile) Write(p []byte) (int, error) {
	if err := <-a.WriteAsync(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Roll 排队执行一次轮转并等待完成。
func (a *AsyncFile) Roll() error {
	return <-a.submit(opRoll, nil)
}

// Reopen 排队重新打开主文件并等待完成。
func (a *AsyncFile) Reopen() error {
	return <-a.submit(opReopen, nil)
}

// Filename 返回当前主文件路径。
func (a *AsyncFile) Filename() string {
	return a.file.Filename()
}

// Close 等待队列中已提交的操作执行完毕后关闭文件。重复调用返回 [ErrClosed]。
func (a *AsyncFile) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	a.mu.Unlock()

	if err := a.pool.Close(); err != nil {
		return err
	}
	return a.file.Close()
}
