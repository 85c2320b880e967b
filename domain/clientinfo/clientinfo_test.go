package clientinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

const wellFormed = `# connection parameters
DOMAIN=example.com
UUID="9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e"
PUBLIC_KEY="pXg1NLrwXyXYylKaqOwZFC9DfoLB3n8hkQykBmDNcGs"
SHORT_ID=6ba85179e30d4fc2
SNI="www.cloudflare.com"

REALITY_PORT=443
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.info")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWellFormed(t *testing.T) {
	rec, err := Load(writeFile(t, wellFormed))
	require.NoError(t, err)

	assert.Equal(t, 6, rec.Len())
	assert.Equal(t, "example.com", rec.Domain())
	assert.Equal(t, "www.cloudflare.com", rec.SNI())
	assert.Equal(t, "6ba85179e30d4fc2", rec.ShortID())

	id, err := rec.UUID()
	require.NoError(t, err)
	assert.Equal(t, "9b120c05-7bc0-4a77-9b67-b9a5d63c2f4e", id.String())

	port, err := rec.RealityPort()
	require.NoError(t, err)
	assert.Equal(t, 443, port)

	// quoted and unquoted styles mix freely; first-occurrence order is kept
	assert.Equal(t, []string{"DOMAIN", "UUID", "PUBLIC_KEY", "SHORT_ID", "SNI", "REALITY_PORT"}, rec.Keys())
}

func TestLoadIsIdempotent(t *testing.T) {
	path := writeFile(t, wellFormed)
	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, first.Keys(), second.Keys())
	for _, key := range first.Keys() {
		a, _ := first.Get(key)
		b, _ := second.Get(key)
		assert.Equal(t, a, b)
	}
}

func TestUnexpectedKeyRejected(t *testing.T) {
	_, err := Parse([]byte("DOMAIN=example.com\nMALICIOUS=\"$(touch pwn)\"\n"))
	require.Error(t, err)
	assert.True(t, rcerrors.IsKind(err, rcerrors.KindUnexpectedKey))
	assert.Equal(t, "Unexpected key 'MALICIOUS'", err.Error())
}

func TestSuspiciousValues(t *testing.T) {
	cases := []struct {
		name string
		line string
		key  string
	}{
		{"quoted command substitution", `PUBLIC_KEY="$(touch pwn)"`, "PUBLIC_KEY"},
		{"quoted variable expansion", `SNI="${HOME}"`, "SNI"},
		{"quoted backtick", "DOMAIN=\"`id`\"", "DOMAIN"},
		{"quoted semicolon", `DOMAIN="a;b"`, "DOMAIN"},
		{"quoted pipe", `DOMAIN="a|b"`, "DOMAIN"},
		{"quoted ampersand", `DOMAIN="a&b"`, "DOMAIN"},
		{"unquoted semicolon", `DOMAIN=a;rm`, "DOMAIN"},
		{"unquoted pipe", `SHORT_ID=a|b`, "SHORT_ID"},
		{"unquoted ampersand", `SHORT_ID=a&b`, "SHORT_ID"},
		{"unquoted backtick", "SHORT_ID=`id`", "SHORT_ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.line + "\n"))
			require.Error(t, err)
			assert.True(t, rcerrors.IsKind(err, rcerrors.KindSuspiciousValue), "kind = %v", rcerrors.KindOf(err))
			assert.Equal(t, "Suspicious characters in value for "+tc.key, err.Error())
		})
	}
}

func TestInvalidEntries(t *testing.T) {
	lines := []string{
		`DOMAIN=exam ple.com`,
		`DOMAIN=a'b`,
		`DOMAIN=a$b`,
		`DOMAIN=a(b)`,
		`DOMAIN=a<b`,
		`DOMAIN=a\b`,
		`DOMAIN=a"b`,
	}
	for _, line := range lines {
		_, err := Parse([]byte(line))
		require.Error(t, err, "line %q", line)
		assert.True(t, rcerrors.IsKind(err, rcerrors.KindInvalidEntry), "line %q kind %v", line, rcerrors.KindOf(err))
	}
}

func TestInvalidFormat(t *testing.T) {
	lines := []string{
		`DOMAIN example.com`,
		`=value`,
		`domain=example.com`,
		`DOMAIN="unbalanced`,
		`DOMAIN="inner"quote"`,
		"DOMAIN=\"line\nbreak\"",
	}
	for _, line := range lines {
		_, err := Parse([]byte(line))
		require.Error(t, err, "line %q", line)
		assert.True(t, rcerrors.IsKind(err, rcerrors.KindInvalidFormat), "line %q kind %v", line, rcerrors.KindOf(err))
	}
}

func TestLoadNeverExecutesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.info")
	marker := filepath.Join(dir, "pwn")
	content := wellFormed + "MALICIOUS=\"$(touch " + marker + ")\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, rcerrors.IsKind(err, rcerrors.KindUnexpectedKey))

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "embedded command must never run")
}

func TestDuplicateKeyLastWins(t *testing.T) {
	rec, err := Parse([]byte("DOMAIN=first.example\nSNI=a.example\nDOMAIN=second.example\n"))
	require.NoError(t, err)
	assert.Equal(t, "second.example", rec.Domain())
	assert.Equal(t, []string{"DOMAIN", "SNI"}, rec.Keys())
}

func TestEncodeRoundTrip(t *testing.T) {
	rec, err := Parse([]byte(wellFormed))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "client.info")
	require.NoError(t, rec.WriteFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Keys(), again.Keys())
	for _, key := range rec.Keys() {
		want, _ := rec.Get(key)
		got, _ := again.Get(key)
		assert.Equal(t, want, got, "key %s", key)
	}
}

func TestAccessorFailures(t *testing.T) {
	rec, err := Parse([]byte("UUID=not-a-uuid\nREALITY_PORT=70000\n"))
	require.NoError(t, err)

	_, uuidErr := rec.UUID()
	assert.True(t, rcerrors.IsKind(uuidErr, rcerrors.KindParse))

	_, portErr := rec.RealityPort()
	assert.True(t, rcerrors.IsKind(portErr, rcerrors.KindParse))

	empty, err := Parse(nil)
	require.NoError(t, err)
	_, err = empty.UUID()
	assert.Error(t, err)
	_, err = empty.RealityPort()
	assert.Error(t, err)
}
