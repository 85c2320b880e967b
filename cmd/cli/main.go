package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/sirupsen/logrus"

	"github.com/qiyun-labs/realityconf/backend/singbox"
	"github.com/qiyun-labs/realityconf/domain/clientinfo"
	"github.com/qiyun-labs/realityconf/domain/provision"
	"github.com/qiyun-labs/realityconf/domain/version"
	"github.com/qiyun-labs/realityconf/pkg/realityconf"
	"github.com/qiyun-labs/realityconf/pkg/settings"
)

func main() {
	var (
		mode           = flag.String("mode", "info", "operation mode: info | check | render | provision | link | version")
		settingsPath   = flag.String("settings", "", "tool settings YAML (optional)")
		clientInfoPath = flag.String("client-info", "", "client info file (default from settings)")
		inputPath      = flag.String("input", "", "engine config JSON input (default: stdin)")
		outputDir      = flag.String("output", "", "installation directory to write into (render mode, default from settings)")
		engineVersion  = flag.String("engine-version", "", "installed engine version (default from settings)")
		minVersion     = flag.String("min-version", "", "minimum engine version (version mode)")
		domain         = flag.String("domain", "", "public domain for provisioning")
		sni            = flag.String("sni", "", "camouflage SNI (default: the domain)")
		port           = flag.Int("port", 443, "REALITY listen port for provisioning")
		strict         = flag.Bool("strict", false, "require inbounds and outbounds sections")
		pretty         = flag.Bool("pretty", true, "pretty print rendered JSON")
		withClient     = flag.Bool("with-client-info", false, "include the client info file in the rendered bundle")
		showQR         = flag.Bool("qr", false, "print share links as a terminal QR code")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	cfg, err := settings.Load(*settingsPath)
	if err != nil {
		exitWithError(log, err)
	}
	if *clientInfoPath == "" {
		*clientInfoPath = cfg.ClientInfoPath
	}
	if *engineVersion == "" {
		*engineVersion = cfg.EngineVersion
	}
	if *outputDir == "" {
		*outputDir = cfg.InstallDir
	}

	ctx := context.Background()
	var backend realityconf.Backend = singbox.New()

	switch *mode {
	case "info":
		rec, err := clientinfo.Load(*clientInfoPath)
		if err != nil {
			exitWithError(log, err)
		}
		for _, key := range rec.Keys() {
			value, _ := rec.Get(key)
			fmt.Printf("%s=%s\n", key, value)
		}

	case "check":
		doc, err := readDocument(*inputPath, cfg.ConfigPath)
		if err != nil {
			exitWithError(log, err)
		}
		opts := realityconf.CheckOptions{EngineVersion: *engineVersion, Strict: *strict}
		if err := backend.Check(ctx, doc, opts); err != nil {
			exitWithError(log, err)
		}
		log.Info("configuration OK")

	case "render":
		doc, err := readDocument(*inputPath, "")
		if err != nil {
			exitWithError(log, err)
		}
		opts := realityconf.RenderOptions{
			EngineVersion: *engineVersion,
			Strict:        *strict,
			Pretty:        *pretty,
			GenerationTag: "cli",
		}
		if *withClient {
			rec, err := clientinfo.Load(*clientInfoPath)
			if err != nil {
				exitWithError(log, err)
			}
			opts.ClientInfo = rec
		}
		bundle, err := backend.Render(ctx, doc, opts)
		if err != nil {
			exitWithError(log, err)
		}
		reportChanges(log, cfg.ConfigPath, doc)
		if err := bundle.WriteTo(*outputDir); err != nil {
			exitWithError(log, err)
		}
		log.Infof("wrote %d files to %s", len(bundle.Files), *outputDir)

	case "provision":
		identity, err := provision.NewIdentity()
		if err != nil {
			exitWithError(log, err)
		}
		rec, err := identity.Record(*domain, *sni, *port)
		if err != nil {
			exitWithError(log, err)
		}
		if err := rec.WriteFile(*clientInfoPath); err != nil {
			exitWithError(log, err)
		}
		log.Infof("client info written to %s", *clientInfoPath)

		block, err := json.MarshalIndent(identity.RealityBlock(cfg.HandshakeServer, cfg.HandshakePort), "", "  ")
		if err != nil {
			exitWithError(log, err)
		}
		fmt.Println(string(block))
		printLink(log, rec, *showQR)

	case "link":
		rec, err := clientinfo.Load(*clientInfoPath)
		if err != nil {
			exitWithError(log, err)
		}
		printLink(log, rec, *showQR)

	case "version":
		if *minVersion == "" {
			exitWithError(log, errors.New("min-version is required (use -min-version)"))
		}
		if !version.MeetsMinimum(*engineVersion, *minVersion) {
			exitWithError(log, fmt.Errorf("engine version %q does not meet minimum %q", *engineVersion, *minVersion))
		}
		fmt.Printf("%s >= %s\n", *engineVersion, *minVersion)

	default:
		exitWithError(log, fmt.Errorf("unknown mode %q (use info|check|render|provision|link|version)", *mode))
	}
}

func readDocument(inputPath, fallback string) (*realityconf.Document, error) {
	path := inputPath
	if path == "" {
		path = fallback
	}
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return realityconf.ParseDocument(data)
}

// reportChanges logs which top-level sections differ from the currently
// deployed config. Purely informational; a missing current config is fine.
func reportChanges(log *logrus.Logger, currentPath string, next *realityconf.Document) {
	data, err := os.ReadFile(currentPath)
	if err != nil {
		return
	}
	current, err := realityconf.ParseDocument(data)
	if err != nil {
		log.Warnf("current config at %s does not parse: %v", currentPath, err)
		return
	}
	diff := realityconf.DiffDocuments(current, next)
	if diff.Empty() {
		log.Info("no changes against deployed config")
		return
	}
	log.Infof("sections changing: %v", diff.Sections())
}

func printLink(log *logrus.Logger, rec *clientinfo.Record, showQR bool) {
	link, err := clientinfo.BuildLink(rec)
	if err != nil {
		exitWithError(log, err)
	}
	fmt.Println(link)
	if showQR {
		qr, err := qrcode.New(link, qrcode.Medium)
		if err != nil {
			exitWithError(log, err)
		}
		fmt.Println(qr.ToSmallString(false))
	}
}

func exitWithError(log *logrus.Logger, err error) {
	log.Error(err)
	os.Exit(1)
}
