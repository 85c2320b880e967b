package realityconf

import "github.com/qiyun-labs/realityconf/domain/clientinfo"

// CheckOptions controls validate-only runs.
type CheckOptions struct {
	// EngineVersion gates version-dependent schema rules. Empty means the
	// version is unknown and every gated rule is skipped.
	EngineVersion string

	// Strict additionally requires the inbounds and outbounds sections to
	// be present, for checking a complete installation rather than a
	// fragment.
	Strict bool
}

// RenderOptions controls rendering a validated document into deployable
// files.
type RenderOptions struct {
	EngineVersion string
	Strict        bool

	// SkipValidation emits the document without schema checks. Meant for
	// inspecting rejected configs, never for deployment.
	SkipValidation bool

	// Pretty indents the emitted JSON.
	Pretty bool

	// GenerationTag is recorded in the bundle metadata.
	GenerationTag string

	// ClientInfo, when set, adds the credential bundle to the output with
	// 0600 permissions.
	ClientInfo *clientinfo.Record
}
