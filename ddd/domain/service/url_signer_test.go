package service

import (
	"crypto/md5"
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureToken_MatchesDigest(t *testing.T) {
	const expiry int64 = 1700000000
	sum := md5.Sum([]byte("1700000000/videos/test/master.m3u8 s"))
	want := base64.RawURLEncoding.EncodeToString(sum[:])

	got := SignatureToken("/videos/test/master.m3u8", "s", expiry)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "=")

	assert.NotEqual(t, got, SignatureToken("/videos/test/master.m3u8", "t", expiry))
	assert.NotEqual(t, got, SignatureToken("/videos/other/master.m3u8", "s", expiry))
	assert.NotEqual(t, got, SignatureToken("/videos/test/master.m3u8", "s", expiry+1))
}

func TestSignURL(t *testing.T) {
	signed := SignURL("https://cdn.example.com/videos/test/master.m3u8?a=1", "s", 1700000000)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/videos/test/master.m3u8", u.Path)
	assert.Equal(t, "1", u.Query().Get("a"))
	assert.Equal(t, "1700000000", u.Query().Get("expires"))
	assert.Equal(t, SignatureToken("/videos/test/master.m3u8", "s", 1700000000), u.Query().Get("token"))
}

func TestSignURL_Degrades(t *testing.T) {
	raw := "https://cdn.example.com/v/master.m3u8"
	assert.Equal(t, raw, SignURL(raw, "", 1))
	bad := "://bad url"
	assert.Equal(t, bad, SignURL(bad, "s", 1))
}

func TestURLSigner_Expiry(t *testing.T) {
	s := NewURLSigner("s", 4*time.Hour)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	exp := s.Expiry()
	assert.Equal(t, fixed.Add(4*time.Hour), exp)
	assert.Contains(t, s.Sign("https://x/y.m3u8", exp), "expires=1704081600")
}
