package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const defaultDingTalkTimeout = 10 * time.Second

type DingTalkConfig struct {
	Webhook string
	// Secret enables request signing when set
	Secret  string
	Timeout time.Duration
}

type dingTalkMessage struct {
	MsgType  string           `json:"msgtype"`
	Markdown dingTalkMarkdown `json:"markdown"`
	At       dingTalkAt       `json:"at"`
}

type dingTalkMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type dingTalkAt struct {
	IsAtAll bool `json:"isAtAll"`
}

type dingTalkReply struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// DingTalkNotifier posts markdown messages to a DingTalk group robot
type DingTalkNotifier struct {
	webhook string
	secret  string
	now     func() time.Time
	cl      *http.Client
}

func NewDingTalkNotifier(cfg DingTalkConfig) (*DingTalkNotifier, error) {
	if _, err := url.ParseRequestURI(cfg.Webhook); err != nil {
		return nil, fmt.Errorf("invalid dingtalk webhook: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDingTalkTimeout
	}
	return &DingTalkNotifier{
		webhook: cfg.Webhook,
		secret:  cfg.Secret,
		now:     time.Now,
		cl:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (d *DingTalkNotifier) SendReport(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(dingTalkMessage{
		MsgType:  "markdown",
		Markdown: dingTalkMarkdown{Title: title, Text: body},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	endpoint, err := d.signedURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := d.cl.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("non-200 response (%d): %s", resp.StatusCode, raw)
	}

	var reply dingTalkReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if reply.ErrCode != 0 {
		return fmt.Errorf("dingtalk rejected message (%d): %s", reply.ErrCode, reply.ErrMsg)
	}

	zerolog.Ctx(ctx).Info().Str("title", title).Msg("report delivered to dingtalk")
	return nil
}

func (d *DingTalkNotifier) signedURL() (string, error) {
	if d.secret == "" {
		return d.webhook, nil
	}

	u, err := url.Parse(d.webhook)
	if err != nil {
		return "", fmt.Errorf("parse webhook: %w", err)
	}

	ts := strconv.FormatInt(d.now().UnixMilli(), 10)
	q := u.Query()
	q.Set("timestamp", ts)
	q.Set("sign", Sign(ts, d.secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Sign returns the base64 HMAC-SHA256 of "<timestamp>\n<secret>" keyed by secret
func Sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
