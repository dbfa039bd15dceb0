package service

import (
	"crypto/md5"
	"encoding/base64"
	"net/url"
	"strconv"
	"time"
)

// URLSigner CDN 播放地址签名
type URLSigner struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewURLSigner ttl 为签名有效期
func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	return &URLSigner{secret: secret, ttl: ttl, now: time.Now}
}

// Expiry 本次签名的过期时间
func (s *URLSigner) Expiry() time.Time {
	return s.now().Add(s.ttl)
}

// Sign 对 rawURL 签名，返回签名后的地址。未配置密钥或解析失败时返回原地址
func (s *URLSigner) Sign(rawURL string, expiry time.Time) string {
	return SignURL(rawURL, s.secret, expiry.Unix())
}

// SignatureToken base64url(md5("{expiry}{path} {secret}"))，无填充
func SignatureToken(path, secret string, expiry int64) string {
	sum := md5.Sum([]byte(strconv.FormatInt(expiry, 10) + path + " " + secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SignURL 追加 token 与 expires 参数
func SignURL(rawURL, secret string, expiry int64) string {
	if secret == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("token", SignatureToken(u.Path, secret, expiry))
	q.Set("expires", strconv.FormatInt(expiry, 10))
	u.RawQuery = q.Encode()
	return u.String()
}
