package realityconf

import "context"

// Backend adapts the core validation to one proxy engine's configuration
// dialect. Backends are pure: no process execution, no network.
type Backend interface {
	// Name returns the backend identifier (e.g., "sing-box").
	Name() string

	// Check validates every recognized section of the document without
	// producing output. A nil return means the document is deployable.
	Check(ctx context.Context, doc *Document, opts CheckOptions) error

	// Render validates the document and emits the deployable artifacts.
	// Validation failures abort the render; no partial bundle is returned.
	Render(ctx context.Context, doc *Document, opts RenderOptions) (*Bundle, error)
}
