// Package provision generates fresh client credentials for a REALITY
// installation: the client UUID, the X25519 keypair, and a rotating short
// ID. 生成逻辑只依赖 crypto/rand，绝不复用旧密钥。
package provision

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/curve25519"

	"github.com/qiyun-labs/realityconf/domain/clientinfo"
	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// shortIDBytes is the engine's maximum short-ID length (8 bytes, hex
// encoded to 16 characters).
const shortIDBytes = 8

// Identity is one freshly provisioned set of client credentials. Keys are
// base64url without padding, the form the engine expects.
type Identity struct {
	UUID       uuid.UUID
	PrivateKey string
	PublicKey  string
	ShortID    string
}

// NewIdentity generates a complete identity from the system entropy source.
func NewIdentity() (*Identity, error) {
	priv := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(priv); err != nil {
		return nil, rcerrors.New(rcerrors.KindInternal, fmt.Errorf("generate private key: %w", err))
	}
	// X25519 scalar clamping
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindInternal, fmt.Errorf("derive public key: %w", err))
	}

	sid := make([]byte, shortIDBytes)
	if _, err := rand.Read(sid); err != nil {
		return nil, rcerrors.New(rcerrors.KindInternal, fmt.Errorf("generate short id: %w", err))
	}

	return &Identity{
		UUID:       uuid.New(),
		PrivateKey: base64.RawURLEncoding.EncodeToString(priv),
		PublicKey:  base64.RawURLEncoding.EncodeToString(pub),
		ShortID:    hex.EncodeToString(sid),
	}, nil
}

// Record assembles the client-facing credential bundle for this identity.
// The private key deliberately stays out: the client info file carries only
// what the client side needs.
func (i *Identity) Record(domain, sni string, port int) (*clientinfo.Record, error) {
	if domain == "" {
		return nil, rcerrors.Newf(rcerrors.KindMissingField, "client info has no %s", clientinfo.KeyDomain)
	}
	if sni == "" {
		sni = domain
	}
	if port < 1 || port > 65535 {
		return nil, rcerrors.Newf(rcerrors.KindParse, "invalid REALITY_PORT %q", strconv.Itoa(port))
	}
	return clientinfo.NewRecord(map[string]string{
		clientinfo.KeyDomain:      domain,
		clientinfo.KeyUUID:        i.UUID.String(),
		clientinfo.KeyPublicKey:   i.PublicKey,
		clientinfo.KeyShortID:     i.ShortID,
		clientinfo.KeySNI:         sni,
		clientinfo.KeyRealityPort: strconv.Itoa(port),
	})
}

// RealityBlock renders the server-side reality structure for this identity,
// camouflaging as the given handshake target. The result passes the reality
// schema check by construction.
func (i *Identity) RealityBlock(handshakeServer string, handshakePort int) map[string]any {
	return map[string]any{
		"enabled":     true,
		"private_key": i.PrivateKey,
		"short_id":    []any{i.ShortID},
		"handshake": map[string]any{
			"server":      handshakeServer,
			"server_port": handshakePort,
		},
	}
}
