// Package httpclient provides the JSON HTTP client shared by the LLM providers.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/docqa/pkg/utils/json"
)

// maxErrorBody 错误响应体最多保留的字节数。
const maxErrorBody = 4 << 10

// StatusError 服务端返回非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable 429 和 5xx 可以重试。
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client 发送 JSON 请求，注入 W3C Trace Context，并对可重试的失败做退避重试。
type Client struct {
	http    *http.Client
	retries int
	backoff time.Duration
	header  http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHeader 为每个请求设置固定请求头，空值忽略。
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.header.Set(key, value)
		}
	}
}

// WithBackoff 设置首次重试的等待时间，之后线性增长。
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New 创建客户端，retries 为首次请求之外的重试次数。
func New(timeout time.Duration, retries int, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		retries: max(retries, 0),
		backoff: 500 * time.Millisecond,
		header:  http.Header{"Accept": {"application/json"}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get 发送 GET 请求并把响应解码到 out，out 为 nil 时丢弃响应体。
func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.Do(ctx, http.MethodGet, url, nil, out)
}

// Post 以 JSON 发送 in 并把响应解码到 out。
func (c *Client) Post(ctx context.Context, url string, in, out any) error {
	return c.Do(ctx, http.MethodPost, url, in, out)
}

// Do 发送请求。传输错误和 StatusError.Retryable 的响应会重试，ctx 取消时立即返回。
func (c *Client) Do(ctx context.Context, method, url string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		var retry bool
		retry, lastErr = c.once(ctx, method, url, body, out)
		if lastErr == nil || !retry || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// once 发送一次请求，retry 表示失败是否值得重试。
func (c *Client) once(ctx context.Context, method, url string, body []byte, out any) (retry bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	injectTraceContext(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
		return se.Retryable(), se
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

// injectTraceContext 把当前 Span 的 W3C Trace Context 写入请求头，无活跃 Span 时不写。
func injectTraceContext(req *http.Request) {
	if p := otel.GetTextMapPropagator(); p != nil {
		p.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	}
}
