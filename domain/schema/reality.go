package schema

import (
	"github.com/qiyun-labs/realityconf/domain/version"
	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// realityRequired are the secret-bearing fields a reality block cannot work
// without: the server private key, at least one rotating short ID, and the
// handshake target it camouflages as.
var realityRequired = []string{"private_key", "short_id", "handshake"}

// realityFields is the type phase of the reality check.
var realityFields = []Field{
	{Name: "enabled", Kind: KindBool},
	{Name: "private_key", Kind: KindString},
	// the engine accepts multiple rotating short IDs; a bare string is a
	// configuration mistake, not a shorthand
	{Name: "short_id", Kind: KindStringArray},
	{Name: "handshake", Kind: KindObject},
	{Name: "max_time_difference", Kind: KindString, MinVersion: "1.3.0"},
}

var handshakeFields = []Field{
	{Name: "server", Kind: KindString, Required: true},
	{Name: "server_port", Kind: KindPort, Required: true},
}

// validateReality runs the two sequential sub-checks for the TLS-camouflage
// block: required secret fields first, field types second. Both must pass.
func validateReality(value any, opts Options) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return rcerrors.Newf(rcerrors.KindInvalidFieldType,
			"Invalid type for section '%s': expected object", SectionReality)
	}

	// phase a: presence of the secret-bearing fields
	for _, name := range realityRequired {
		if _, present := obj[name]; !present {
			return missingField(name)
		}
	}

	// phase b: field types, handshake checked down to server/port
	for _, field := range realityFields {
		if field.MinVersion != "" && !version.MeetsMinimum(opts.EngineVersion, field.MinVersion) {
			continue
		}
		raw, present := obj[field.Name]
		if !present {
			continue
		}
		if !matchesKind(raw, field) {
			return invalidFieldType(field.Name, field)
		}
	}

	handshake := obj["handshake"].(map[string]any)
	return applyRule(Rule{Section: "handshake", Fields: handshakeFields}, handshake, opts)
}
