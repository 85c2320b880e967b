package clientinfo

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// linkFlow is the only flow control the engine accepts for REALITY over TCP.
const linkFlow = "xtls-rprx-vision"

// BuildLink renders the record as a vless:// share link understood by common
// client applications. All six allow-listed keys must be present.
func BuildLink(rec *Record) (string, error) {
	if rec == nil {
		return "", rcerrors.Newf(rcerrors.KindInternal, "nil record")
	}
	for _, key := range AllowedKeys {
		if _, ok := rec.Get(key); !ok {
			return "", rcerrors.Newf(rcerrors.KindMissingField, "client info has no %s", key)
		}
	}
	id, err := rec.UUID()
	if err != nil {
		return "", err
	}
	port, err := rec.RealityPort()
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("security", "reality")
	query.Set("encryption", "none")
	query.Set("type", "tcp")
	query.Set("flow", linkFlow)
	query.Set("sni", rec.SNI())
	query.Set("fp", "chrome")
	query.Set("pbk", rec.PublicKey())
	query.Set("sid", rec.ShortID())

	u := url.URL{
		Scheme:   "vless",
		User:     url.User(id.String()),
		Host:     net.JoinHostPort(rec.Domain(), strconv.Itoa(port)),
		RawQuery: query.Encode(),
		Fragment: rec.Domain(),
	}
	return u.String(), nil
}

// ParseLink is the inverse of BuildLink: it imports a vless:// share link
// into a Record. Values go through the same content checks as file parsing,
// a link being just as untrusted as a file.
func ParseLink(link string) (*Record, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindParse, fmt.Errorf("parse link: %w", err))
	}
	if u.Scheme != "vless" {
		return nil, rcerrors.Newf(rcerrors.KindParse, "unsupported link scheme %q", u.Scheme)
	}
	if u.User == nil {
		return nil, rcerrors.Newf(rcerrors.KindParse, "link has no user id")
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindParse, fmt.Errorf("parse link host: %w", err))
	}
	query := u.Query()
	if sec := query.Get("security"); sec != "reality" {
		return nil, rcerrors.Newf(rcerrors.KindParse, "link security is %q, want reality", sec)
	}

	rec := newRecord()
	fields := []struct {
		key   string
		value string
	}{
		{KeyDomain, host},
		{KeyUUID, u.User.Username()},
		{KeyPublicKey, query.Get("pbk")},
		{KeyShortID, query.Get("sid")},
		{KeySNI, query.Get("sni")},
		{KeyRealityPort, portStr},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, rcerrors.Newf(rcerrors.KindMissingField, "link has no %s", f.key)
		}
		if suspicious(f.value) {
			return nil, rcerrors.Newf(rcerrors.KindSuspiciousValue, "Suspicious characters in value for %s", f.key)
		}
		rec.set(f.key, f.value)
	}
	if _, err := rec.UUID(); err != nil {
		return nil, err
	}
	if _, err := rec.RealityPort(); err != nil {
		return nil, err
	}
	return rec, nil
}
