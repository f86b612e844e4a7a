package client

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"lenta/parser/internal/config"
	"lenta/parser/internal/identity"
)

// signer reproduces the header set the official mobile client sends with
// every request, including the Qrator edge-protection token.
type signer struct {
	cfg config.LentaConfig
}

func newSigner(cfg config.LentaConfig) *signer {
	return &signer{cfg: cfg}
}

// deriveToken derives the time-bound Qrator token: the MD5 fingerprint of the
// static key, the target URL and the unix timestamp, concatenated in that
// order. Not an HMAC; the edge layer only checks the digest.
func deriveToken(secret, url string, timestamp int64) string {
	sum := md5.Sum([]byte(secret + url + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(sum[:])
}

// Headers assembles the full signed header set for one request. The token
// binds the current timestamp and the URL, so headers must be built fresh for
// every call and never reused. Entries in extra win on key collision.
func (s *signer) Headers(deviceID, sessionToken, url string, extra map[string]string) map[string]string {
	ts := time.Now().Unix()
	if sessionToken == "" {
		sessionToken = "null"
	}
	headers := map[string]string{
		"Traceparent":     "00-" + identity.NewTraceID() + "-01",
		"App-Version":     s.cfg.AppVersion,
		"Timestamp":       strconv.FormatInt(ts, 10),
		"Qrator-Token":    deriveToken(s.cfg.QratorSecret, url, ts),
		"Sessiontoken":    sessionToken,
		"Deviceid":        deviceID,
		"X-Retail-Brand":  "lo",
		"X-Platform":      "omniapp",
		"Accept-Encoding": "gzip, deflate, br",
		"User-Agent":      s.cfg.UserAgent,
		"Connection":      "keep-alive",
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

// localtime formats the clock the way the app reports it: UTC wall time with
// a hardcoded Moscow offset suffix.
func localtime() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05") + "+03:00"
}
