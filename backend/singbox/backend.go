// Package singbox adapts the core validation to the sing-box configuration
// dialect: top-level inbounds/outbounds arrays, dns and route objects, and
// the reality block nested under an entry's tls section.
package singbox

import (
	"context"

	"github.com/qiyun-labs/realityconf/domain/schema"
	"github.com/qiyun-labs/realityconf/pkg/rcerrors"
	"github.com/qiyun-labs/realityconf/pkg/realityconf"
)

// Paths of the rendered artifacts inside the installation directory.
const (
	ConfigFileName     = "config.json"
	ClientInfoFileName = "client.info"
)

type Backend struct{}

var _ realityconf.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "sing-box"
}

// Check validates every recognized section present in the document. The
// order is stable: inbounds, outbounds, dns, route, with each entry's
// nested reality block checked right after the entry itself.
func (b *Backend) Check(ctx context.Context, doc *realityconf.Document, opts realityconf.CheckOptions) error {
	if doc == nil {
		return rcerrors.Newf(rcerrors.KindInternal, "document is nil")
	}
	schemaOpts := schema.Options{EngineVersion: opts.EngineVersion}

	if opts.Strict {
		for _, name := range []string{"inbounds", "outbounds"} {
			if _, ok := doc.Section(name); !ok {
				return rcerrors.Newf(rcerrors.KindMissingField, "Missing field '%s'", name)
			}
		}
	}

	if err := b.checkEntries(doc, "inbounds", schema.SectionInbound, schemaOpts); err != nil {
		return err
	}
	if err := b.checkEntries(doc, "outbounds", schema.SectionOutbound, schemaOpts); err != nil {
		return err
	}
	for _, pair := range [][2]string{
		{schema.SectionDNS, "dns"},
		{schema.SectionRoute, "route"},
	} {
		section, name := pair[0], pair[1]
		raw, ok := doc.Section(name)
		if !ok {
			continue
		}
		if err := schema.Validate(section, raw, schemaOpts); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) checkEntries(doc *realityconf.Document, name, section string, opts schema.Options) error {
	raw, ok := doc.Section(name)
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return rcerrors.Newf(rcerrors.KindInvalidFieldType,
			"Invalid type for field '%s': expected array", name)
	}
	for _, entry := range entries {
		if err := schema.Validate(section, entry, opts); err != nil {
			return err
		}
		if reality, ok := realityBlock(entry); ok {
			if err := schema.Validate(schema.SectionReality, reality, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// realityBlock digs the reality structure out of an entry's tls section.
func realityBlock(entry any) (any, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return nil, false
	}
	tls, ok := m["tls"].(map[string]any)
	if !ok {
		return nil, false
	}
	reality, ok := tls["reality"]
	return reality, ok
}

// Render validates the document and emits the deployable bundle: the engine
// config.json plus, when requested, the client-info credential file.
// A validation failure returns before any byte is produced.
func (b *Backend) Render(ctx context.Context, doc *realityconf.Document, opts realityconf.RenderOptions) (*realityconf.Bundle, error) {
	if doc == nil {
		return nil, rcerrors.Newf(rcerrors.KindInternal, "document is nil")
	}
	if !opts.SkipValidation {
		if err := b.Check(ctx, doc, realityconf.CheckOptions{
			EngineVersion: opts.EngineVersion,
			Strict:        opts.Strict,
		}); err != nil {
			return nil, err
		}
	}

	data, err := doc.JSON(opts.Pretty)
	if err != nil {
		return nil, err
	}

	bundle := realityconf.NewBundle(b.Name(), opts.EngineVersion)
	bundle.Metadata.Tag = opts.GenerationTag
	bundle.Add(ConfigFileName, data, 0o644)
	if opts.ClientInfo != nil {
		bundle.Add(ClientInfoFileName, opts.ClientInfo.Encode(), 0o600)
	}
	return bundle, nil
}
