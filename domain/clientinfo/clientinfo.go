// Package clientinfo loads the plaintext credential bundle written next to a
// provisioned REALITY installation.
//
// client info 文件完全视为不可信输入：内容只作为纯文本扫描，任何情况下都不会
// 交给 shell、模板引擎或其它解释器执行。
package clientinfo

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// Recognized client-info keys. The set is closed: anything else is rejected
// outright so downstream templating can never interpolate an attacker-chosen
// key.
const (
	KeyDomain      = "DOMAIN"
	KeyUUID        = "UUID"
	KeyPublicKey   = "PUBLIC_KEY"
	KeyShortID     = "SHORT_ID"
	KeySNI         = "SNI"
	KeyRealityPort = "REALITY_PORT"
)

// AllowedKeys lists the closed key set in canonical file order.
var AllowedKeys = []string{
	KeyDomain,
	KeyUUID,
	KeyPublicKey,
	KeyShortID,
	KeySNI,
	KeyRealityPort,
}

var allowedKeySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllowedKeys))
	for _, k := range AllowedKeys {
		m[k] = struct{}{}
	}
	return m
}()

var keyShape = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Record is an ordered mapping from allow-listed keys to validated values.
// It is constructed fresh per Load call and never mutated afterwards.
type Record struct {
	order  []string
	values map[string]string
}

func newRecord() *Record {
	return &Record{values: make(map[string]string)}
}

func (r *Record) set(key, value string) {
	if _, ok := r.values[key]; !ok {
		// first occurrence fixes the position; a repeated assignment
		// overwrites the value, shell style
		r.order = append(r.order, key)
	}
	r.values[key] = value
}

// NewRecord builds a record from in-memory values, applying the same key
// allow-list and content checks as file parsing. Keys are ordered
// canonically. Used by provisioning; values here are trusted inputs but run
// through the checks anyway so an encoded record always reloads cleanly.
func NewRecord(values map[string]string) (*Record, error) {
	for key := range values {
		if _, ok := allowedKeySet[key]; !ok {
			return nil, rcerrors.Newf(rcerrors.KindUnexpectedKey, "Unexpected key '%s'", key)
		}
	}
	rec := newRecord()
	for _, key := range AllowedKeys {
		value, ok := values[key]
		if !ok {
			continue
		}
		if suspicious(value) || strings.Contains(value, `"`) {
			return nil, rcerrors.Newf(rcerrors.KindSuspiciousValue, "Suspicious characters in value for %s", key)
		}
		rec.set(key, value)
	}
	return rec, nil
}

// Get returns the value for key and whether it was present in the file.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in first-occurrence order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of distinct keys present.
func (r *Record) Len() int {
	return len(r.order)
}

// Domain returns the DOMAIN value, empty when absent.
func (r *Record) Domain() string { return r.values[KeyDomain] }

// PublicKey returns the PUBLIC_KEY value, empty when absent.
func (r *Record) PublicKey() string { return r.values[KeyPublicKey] }

// ShortID returns the SHORT_ID value, empty when absent.
func (r *Record) ShortID() string { return r.values[KeyShortID] }

// SNI returns the SNI value, empty when absent.
func (r *Record) SNI() string { return r.values[KeySNI] }

// UUID parses and returns the UUID value.
func (r *Record) UUID() (uuid.UUID, error) {
	raw, ok := r.values[KeyUUID]
	if !ok {
		return uuid.UUID{}, rcerrors.Newf(rcerrors.KindParse, "client info has no UUID")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, rcerrors.New(rcerrors.KindParse, fmt.Errorf("invalid UUID in client info: %w", err))
	}
	return id, nil
}

// RealityPort parses the REALITY_PORT value as a port number.
func (r *Record) RealityPort() (int, error) {
	raw, ok := r.values[KeyRealityPort]
	if !ok {
		return 0, rcerrors.Newf(rcerrors.KindParse, "client info has no REALITY_PORT")
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, rcerrors.Newf(rcerrors.KindParse, "invalid REALITY_PORT %q", raw)
	}
	return port, nil
}

// Encode renders the record back into client-info file form, every value
// double quoted. The output round-trips through Parse.
func (r *Record) Encode() []byte {
	var b strings.Builder
	for _, key := range r.order {
		fmt.Fprintf(&b, "%s=%q\n", key, r.values[key])
	}
	return []byte(b.String())
}

// WriteFile persists the record with 0600 permissions; the file carries
// secrets and is owned by the invoking user.
func (r *Record) WriteFile(path string) error {
	return os.WriteFile(path, r.Encode(), 0o600)
}

// Load reads and parses a client-info file. The file content is handled as
// pure text; nothing derived from it is ever executed or written.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindInternal, fmt.Errorf("read client info: %w", err))
	}
	return Parse(data)
}

// Parse scans client-info content line by line. Blank lines and lines whose
// first non-whitespace character is '#' are skipped; every other line must
// be a KEY=value or KEY="value" assignment against the allow-list.
// Parsing is all-or-nothing: the first offending line aborts the load.
func Parse(data []byte) (*Record, error) {
	rec := newRecord()
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseAssignment(line)
		if err != nil {
			return nil, err
		}
		rec.set(key, value)
	}
	return rec, nil
}

func parseAssignment(line string) (string, string, error) {
	eq := strings.IndexByte(line, '=')
	if eq <= 0 {
		return "", "", rcerrors.Newf(rcerrors.KindInvalidFormat, "Malformed line '%s'", line)
	}
	key := line[:eq]
	value := line[eq+1:]
	if !keyShape.MatchString(key) {
		return "", "", rcerrors.Newf(rcerrors.KindInvalidFormat, "Malformed line '%s'", line)
	}
	// reject unknown keys before inspecting the value so a hostile
	// KEY="$(...)" pair reports the key, matching the CLI contract
	if _, ok := allowedKeySet[key]; !ok {
		return "", "", rcerrors.Newf(rcerrors.KindUnexpectedKey, "Unexpected key '%s'", key)
	}

	quoted := false
	if strings.HasPrefix(value, `"`) {
		// a quoted value must be wrapped by exactly one pair of quotes;
		// a raw newline inside the quotes shows up here as an unbalanced
		// quote and is rejected as a format error
		if len(value) < 2 || !strings.HasSuffix(value, `"`) {
			return "", "", rcerrors.Newf(rcerrors.KindInvalidFormat, "Malformed line '%s'", line)
		}
		value = value[1 : len(value)-1]
		if strings.Contains(value, `"`) {
			return "", "", rcerrors.Newf(rcerrors.KindInvalidFormat, "Malformed line '%s'", line)
		}
		quoted = true
	}

	if suspicious(value) {
		return "", "", rcerrors.Newf(rcerrors.KindSuspiciousValue, "Suspicious characters in value for %s", key)
	}
	if !quoted && strings.ContainsAny(value, " \t\"'`$()<>\\") {
		return "", "", rcerrors.Newf(rcerrors.KindInvalidEntry, "Invalid entry '%s'", line)
	}
	return key, value, nil
}

// suspicious matches the command-substitution and chaining characters that
// must never appear in a value, quoted or not.
func suspicious(value string) bool {
	if strings.Contains(value, "$(") || strings.Contains(value, "${") {
		return true
	}
	return strings.ContainsAny(value, "`;|&\n")
}
