package realityconf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
)

// Document is one decoded engine configuration. The JSON structure is held
// as a structpb.Struct so it can represent any mix of the engine's own
// optional fields without a generated type per engine release.
type Document struct {
	root *structpb.Struct
}

// ParseDocument decodes raw engine JSON into a Document.
func ParseDocument(data []byte) (*Document, error) {
	root := &structpb.Struct{}
	if err := protojson.Unmarshal(data, root); err != nil {
		return nil, rcerrors.New(rcerrors.KindParse, fmt.Errorf("decode config: %w", err))
	}
	return &Document{root: root}, nil
}

// NewDocument builds a Document from an in-memory JSON-like map.
func NewDocument(m map[string]any) (*Document, error) {
	root, err := structpb.NewStruct(m)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindParse, fmt.Errorf("build config: %w", err))
	}
	return &Document{root: root}, nil
}

// JSON encodes the document back to engine JSON.
func (d *Document) JSON(pretty bool) ([]byte, error) {
	if d == nil || d.root == nil {
		return nil, rcerrors.Newf(rcerrors.KindInternal, "document is nil")
	}
	opts := protojson.MarshalOptions{}
	if pretty {
		opts.Multiline = true
		opts.Indent = "  "
	}
	data, err := opts.Marshal(d.root)
	if err != nil {
		return nil, rcerrors.New(rcerrors.KindRender, fmt.Errorf("encode config: %w", err))
	}
	return data, nil
}

// AsMap returns the document as a plain JSON-like map.
func (d *Document) AsMap() map[string]any {
	if d == nil || d.root == nil {
		return nil
	}
	return d.root.AsMap()
}

// Section returns one top-level section as a decoded JSON value and whether
// it is present.
func (d *Document) Section(name string) (any, bool) {
	if d == nil || d.root == nil {
		return nil, false
	}
	v, ok := d.root.Fields[name]
	if !ok {
		return nil, false
	}
	return v.AsInterface(), true
}

// Inbounds returns the inbounds array, nil when absent or mis-shaped.
func (d *Document) Inbounds() []any {
	return d.sectionArray("inbounds")
}

// Outbounds returns the outbounds array, nil when absent or mis-shaped.
func (d *Document) Outbounds() []any {
	return d.sectionArray("outbounds")
}

func (d *Document) sectionArray(name string) []any {
	raw, ok := d.Section(name)
	if !ok {
		return nil
	}
	items, _ := raw.([]any)
	return items
}

// Clone returns an independent deep copy.
func (d *Document) Clone() *Document {
	if d == nil || d.root == nil {
		return &Document{}
	}
	return &Document{root: proto.Clone(d.root).(*structpb.Struct)}
}

// Merge layers other on top of d using the engine's identifier convention
// and returns a new Document; neither input is modified.
func (d *Document) Merge(other *Document) (*Document, error) {
	if d == nil || other == nil {
		return nil, rcerrors.Newf(rcerrors.KindInternal, "nil document")
	}
	merged := mergeMaps(d.AsMap(), other.AsMap(), DefaultIdentifiers)
	return NewDocument(merged)
}
