package provision

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyun-labs/realityconf/domain/clientinfo"
	"github.com/qiyun-labs/realityconf/domain/schema"
)

func TestNewIdentityShapes(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	priv, err := base64.RawURLEncoding.DecodeString(id.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, priv, 32)

	pub, err := base64.RawURLEncoding.DecodeString(id.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, 32)
	assert.NotEqual(t, id.PrivateKey, id.PublicKey)

	assert.Len(t, id.ShortID, 16)
	assert.NotEqual(t, id.UUID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestIdentitiesAreUnique(t *testing.T) {
	a, err := NewIdentity()
	require.NoError(t, err)
	b, err := NewIdentity()
	require.NoError(t, err)

	assert.NotEqual(t, a.UUID, b.UUID)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
	assert.NotEqual(t, a.ShortID, b.ShortID)
}

func TestRecordRoundTripsThroughLoader(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	rec, err := id.Record("example.com", "www.cloudflare.com", 443)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Len())

	parsed, err := clientinfo.Parse(rec.Encode())
	require.NoError(t, err)
	assert.Equal(t, rec.Keys(), parsed.Keys())

	gotUUID, err := parsed.UUID()
	require.NoError(t, err)
	assert.Equal(t, id.UUID, gotUUID)
	assert.Equal(t, id.PublicKey, parsed.PublicKey())
}

func TestRecordDefaultsSNIToDomain(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	rec, err := id.Record("example.com", "", 443)
	require.NoError(t, err)
	assert.Equal(t, "example.com", rec.SNI())

	_, err = id.Record("", "sni.example", 443)
	assert.Error(t, err)
	_, err = id.Record("example.com", "", 0)
	assert.Error(t, err)
}

func TestRealityBlockPassesSchema(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	block := id.RealityBlock("www.cloudflare.com", 443)
	require.NoError(t, schema.Validate(schema.SectionReality, block, schema.Options{EngineVersion: "1.12.0"}))
}
