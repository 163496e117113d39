package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// DriverSession 通过 HTTP 与本地浏览器驱动边车（sidecar）通信的 Session 实现
//
// 平台本身没有官方写接口，实际的页面操作由一个独立的驱动进程完成；
// 本类型只负责把每个动作翻译成边车的 JSON API 调用，并把 HTTP 状态码
// 映射回领域错误（401 → 会话过期，403/429 → 平台拒绝）。
//
// DriverSession implements Session against a local browser-driver sidecar
// speaking a small JSON API. It maps sidecar HTTP statuses back onto the
// domain error taxonomy.
type DriverSession struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewDriverSession creates a session talking to the sidecar at baseURL.
func NewDriverSession(baseURL string, timeout time.Duration, logger *zap.Logger) *DriverSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DriverSession{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "driver_session")),
	}
}

// Login establishes the platform session inside the sidecar. Call it once
// before any other operation; the sidecar keeps the cookie jar after that.
func (s *DriverSession) Login(ctx context.Context, username, password string) error {
	return s.postAction(ctx, "/v1/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (s *DriverSession) Follow(ctx context.Context, targetID string) error {
	return s.postAction(ctx, "/v1/follow", map[string]string{"target_id": targetID})
}

func (s *DriverSession) Unfollow(ctx context.Context, targetID string) error {
	return s.postAction(ctx, "/v1/unfollow", map[string]string{"target_id": targetID})
}

func (s *DriverSession) LikeMedia(ctx context.Context, mediaID string) error {
	return s.postAction(ctx, "/v1/like", map[string]string{"media_id": mediaID})
}

func (s *DriverSession) FetchProfile(ctx context.Context, targetID string) (types.TargetProfile, error) {
	var profile types.TargetProfile
	q := url.Values{"username": {targetID}}
	if err := s.getJSON(ctx, "/v1/profile", q, &profile); err != nil {
		return types.TargetProfile{}, err
	}
	return profile, nil
}

func (s *DriverSession) ListFollowers(_ context.Context, targetID string) (FollowerPager, error) {
	return &driverPager{session: s, username: targetID}, nil
}

func (s *DriverSession) ListMedia(ctx context.Context, targetID string, max int) ([]string, error) {
	var resp struct {
		IDs []string `json:"ids"`
	}
	q := url.Values{"username": {targetID}, "max": {strconv.Itoa(max)}}
	if err := s.getJSON(ctx, "/v1/media", q, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// driverPager pages through a follower listing via an opaque cursor the
// sidecar hands back. The sidecar owns scroll position recovery, so the
// pager is restartable across transient errors.
type driverPager struct {
	session  *DriverSession
	username string
	cursor   string
	done     bool
}

func (p *driverPager) Next(ctx context.Context) ([]string, bool, error) {
	if p.done {
		return nil, true, nil
	}
	var resp struct {
		IDs    []string `json:"ids"`
		Cursor string   `json:"cursor"`
		Done   bool     `json:"done"`
	}
	q := url.Values{"username": {p.username}}
	if p.cursor != "" {
		q.Set("cursor", p.cursor)
	}
	if err := p.session.getJSON(ctx, "/v1/followers", q, &resp); err != nil {
		return nil, false, err
	}
	p.cursor = resp.Cursor
	p.done = resp.Done
	return resp.IDs, resp.Done, nil
}

func (s *DriverSession) postAction(ctx context.Context, path string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode driver request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build driver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return types.NewError(types.ErrPlatformDenied, "driver unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return mapDriverError(resp.StatusCode, readErrorMessage(resp.Body))
	}
	return nil
}

func (s *DriverSession) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build driver request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return types.NewError(types.ErrPlatformDenied, "driver unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return mapDriverError(resp.StatusCode, readErrorMessage(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode driver response: %w", err)
	}
	return nil
}

// mapDriverError 将边车的 HTTP 状态码映射为领域错误
func mapDriverError(status int, msg string) error {
	switch status {
	case http.StatusUnauthorized:
		// 登录态失效：不可重试，需要整轮中止后重新登录
		return types.NewError(types.ErrSessionExpired, msg)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return types.NewError(types.ErrPlatformDenied, msg)
	case http.StatusNotFound:
		return types.NewError(types.ErrTargetRejected, msg)
	default:
		return types.NewError(types.ErrPlatformDenied, msg).WithRetryable(status >= 500)
	}
}

// readErrorMessage 读取错误响应体，优先解析 JSON 的 error.message 字段
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "failed to read driver error response"
	}
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return string(data)
}
