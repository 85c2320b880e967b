package clientinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

func TestBuildLinkRoundTrip(t *testing.T) {
	rec, err := Parse([]byte(wellFormed))
	require.NoError(t, err)

	link, err := BuildLink(rec)
	require.NoError(t, err)
	assert.Contains(t, link, "vless://9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e@example.com:443")
	assert.Contains(t, link, "security=reality")
	assert.Contains(t, link, "sni=www.cloudflare.com")

	parsed, err := ParseLink(link)
	require.NoError(t, err)
	for _, key := range AllowedKeys {
		want, _ := rec.Get(key)
		got, _ := parsed.Get(key)
		assert.Equal(t, want, got, "key %s", key)
	}
}

func TestBuildLinkRequiresAllKeys(t *testing.T) {
	rec, err := Parse([]byte("DOMAIN=example.com\n"))
	require.NoError(t, err)

	_, err = BuildLink(rec)
	require.Error(t, err)
	assert.True(t, rcerrors.IsKind(err, rcerrors.KindMissingField))
}

func TestParseLinkRejections(t *testing.T) {
	cases := []struct {
		name string
		link string
		kind rcerrors.Kind
	}{
		{
			"wrong scheme",
			"trojan://pass@example.com:443",
			rcerrors.KindParse,
		},
		{
			"missing security",
			"vless://9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e@example.com:443?sni=a.example",
			rcerrors.KindParse,
		},
		{
			"missing public key",
			"vless://9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e@example.com:443?security=reality&sni=a.example&sid=abcd",
			rcerrors.KindMissingField,
		},
		{
			"hostile short id",
			"vless://9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e@example.com:443?security=reality&sni=a.example&pbk=k&sid=a%3Brm",
			rcerrors.KindSuspiciousValue,
		},
		{
			"bad uuid",
			"vless://nope@example.com:443?security=reality&sni=a.example&pbk=k&sid=abcd",
			rcerrors.KindParse,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLink(tc.link)
			require.Error(t, err)
			assert.True(t, rcerrors.IsKind(err, tc.kind), "kind = %v", rcerrors.KindOf(err))
		})
	}
}
