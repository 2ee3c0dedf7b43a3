package spark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Credentials 讯飞开放平台的鉴权凭证
type Credentials struct {
	AppID     string
	APIKey    string
	APISecret string
}

// Validate 凭证缺失属于配置错误，启动时直接失败
func (c Credentials) Validate() error {
	if c.AppID == "" || c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("spark: incomplete credentials (app_id/api_key/api_secret required)")
	}
	return nil
}

// Signer 按讯飞规范对WebSocket连接URL做HMAC-SHA256签名
// 签名绑定时间戳，每次连接前必须重新生成
type Signer struct {
	creds Credentials
	now   func() time.Time
}

func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds, now: time.Now}
}

// AuthURL 在连接URL上追加鉴权查询参数
// 签名串为 "host: {host}\ndate: {date}\nGET {path} HTTP/1.1"，
// date取RFC1123格式的GMT时间。
func (s *Signer) AuthURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("spark: invalid connection url %q: %w", rawURL, err)
	}

	date := s.now().UTC().Format(http.TimeFormat)

	signOrigin := fmt.Sprintf("host: %s\ndate: %s\nGET %s HTTP/1.1", u.Host, date, u.Path)
	mac := hmac.New(sha256.New, []byte(s.creds.APISecret))
	mac.Write([]byte(signOrigin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authOrigin := fmt.Sprintf(`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		s.creds.APIKey, signature)
	authorization := base64.StdEncoding.EncodeToString([]byte(authOrigin))

	query := url.Values{}
	query.Set("authorization", authorization)
	query.Set("date", date)
	query.Set("host", u.Host)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
