package xsink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// HECEvent HTTP Event Collector 的事件格式。
type HECEvent struct {
	Time       float64 `json:"time"` // Unix 秒，带毫秒小数
	Host       string  `json:"host,omitempty"`
	Source     string  `json:"source,omitempty"`
	SourceType string  `json:"sourcetype,omitempty"`
	Index      string  `json:"index,omitempty"`
	Event      any     `json:"event"`
}

// HEC 将事件 POST 到 HTTP Event Collector。不重试，不排队。
type HEC struct {
	base
	client  *fasthttp.Client
	url     string
	token   string
	channel string
	timeout time.Duration
}

var _ Sink[HECEvent] = (*HEC)(nil)

// NewHEC 创建 HEC sink，baseURL 形如 "https://collector:8088"。
// 每个 sink 生成一个请求通道 ID，随每个请求在 X-Splunk-Request-Channel 中发送。
func NewHEC(name, baseURL, token string, opts ...Option) (*HEC, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if token == "" {
		return nil, ErrEmptyToken
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	o := buildOptions(opts)
	client := o.client
	if client == nil {
		client = &fasthttp.Client{Name: "xlogkit-hec"}
	}
	return &HEC{
		base:    newBase(name, "xsink.hec", &o),
		client:  client,
		url:     strings.TrimRight(baseURL, "/") + hecPath,
		token:   token,
		channel: uuid.NewString(),
		timeout: o.hecTimeout,
	}, nil
}

// Channel 返回请求通道 ID。
func (h *HEC) Channel() string { return h.channel }

// Dispatch 异步发送事件，发送完成前 Shutdown 会等待。
func (h *HEC) Dispatch(ctx context.Context, ev HECEvent) {
	op, err := h.tracker.Begin()
	if err != nil {
		return
	}
	if ev.Source != "" && !strings.HasPrefix(ev.Source, "http:") {
		ev.Source = "http:" + ev.Source
	}
	body, err := json.Marshal(ev)
	if err != nil {
		op.Done(err)
		h.report(ctx, "encode collector event failed", err)
		return
	}
	go func() {
		err := h.post(ctx, body)
		op.Done(err)
		n := len(body)
		if err != nil {
			n = 0
			h.report(ctx, "collector post failed", err, xlog.Path(h.url))
		}
		h.rec.RecordWrite(ctx, h.name, n, err)
	}()
}

func (h *HEC) post(ctx context.Context, body []byte) (err error) {
	_, span := h.rec.Start(ctx, h.component, "hec.post")
	defer func() { span.End(err) }()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Splunk "+h.token)
	req.Header.Set("X-Splunk-Request-Channel", h.channel)
	req.SetBody(body)

	if err := h.client.DoTimeout(req, resp, h.timeout); err != nil {
		return fmt.Errorf("xsink: post %s: %w", h.url, err)
	}
	if sc := resp.StatusCode(); sc < 200 || sc >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrCollectorStatus, sc, strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

// Shutdown 等待在途请求完成后关闭空闲连接。
func (h *HEC) Shutdown(ctx context.Context) error {
	return h.drain(ctx, func(error) error {
		h.client.CloseIdleConnections()
		return nil
	})
}
