// Package settings loads the CLI tool's own YAML settings: where the
// installation lives and which engine version the configs target. These are
// operator-supplied knobs, distinct from the untrusted client-info input.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the tool configuration, usually at
// /etc/realityconf/settings.yaml.
type Settings struct {
	// InstallDir is the engine installation directory that rendered
	// bundles are written into.
	InstallDir string `yaml:"install_dir"`
	// ClientInfoPath is the credential bundle location.
	ClientInfoPath string `yaml:"client_info_path"`
	// ConfigPath is the engine configuration file location.
	ConfigPath string `yaml:"config_path"`
	// EngineVersion pins the engine version used for version-gated schema
	// rules. Empty means unknown; gated rules are then skipped.
	EngineVersion string `yaml:"engine_version"`
	// HandshakeServer is the default TLS camouflage target for newly
	// provisioned installations.
	HandshakeServer string `yaml:"handshake_server"`
	// HandshakePort is the camouflage target port.
	HandshakePort int `yaml:"handshake_port"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		InstallDir:      "/opt/realityconf",
		ClientInfoPath:  "/opt/realityconf/client.info",
		ConfigPath:      "/opt/realityconf/config.json",
		HandshakeServer: "www.cloudflare.com",
		HandshakePort:   443,
	}
}

// Load reads settings from path, filling gaps with defaults. A missing file
// is not an error; defaults apply.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("settings_yaml_decode_failed path=%s err=%w", path, err)
	}
	if s.InstallDir == "" {
		s.InstallDir = Default().InstallDir
	}
	if s.ClientInfoPath == "" {
		s.ClientInfoPath = filepath.Join(s.InstallDir, "client.info")
	}
	if s.ConfigPath == "" {
		s.ConfigPath = filepath.Join(s.InstallDir, "config.json")
	}
	if s.HandshakeServer == "" {
		s.HandshakeServer = Default().HandshakeServer
	}
	if s.HandshakePort == 0 {
		s.HandshakePort = Default().HandshakePort
	}
	return s, nil
}
