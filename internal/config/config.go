package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// Config is the user-scoped configuration loaded from config.hcl, covering
// engine installations, build defaults, registry/signing/verification
// policy, auth, and resolver tuning. Every section is optional in the
// file; a missing block decodes to its zero value and Load fills in the
// documented defaults.
type Config struct {
	Engines      []EngineBlock      `hcl:"engine,block"`
	Build        *BuildBlock        `hcl:"build,block"`
	Registry     *RegistryBlock     `hcl:"registry,block"`
	Signing      *SigningBlock      `hcl:"signing,block"`
	Verification *VerificationBlock `hcl:"verification,block"`
	Auth         *AuthBlock         `hcl:"auth,block"`
	Resolver     *ResolverBlock     `hcl:"resolver,block"`
}

// EngineBlock is one `engine "5.3" { path = "..." }` entry.
type EngineBlock struct {
	Version string `hcl:"version,label"`
	Path    string `hcl:"path,attr"`
}

// BuildBlock controls automatic binary building around install/publish.
type BuildBlock struct {
	AutoBuildOnPublish bool     `hcl:"auto_build_on_publish,optional"`
	AutoBuildOnInstall bool     `hcl:"auto_build_on_install,optional"`
	Platforms          []string `hcl:"platforms,optional"`
	Configuration      string   `hcl:"configuration,optional"`
}

// RegistryBlock selects the default registry backend.
type RegistryBlock struct {
	Type string `hcl:"type,optional"`
	URL  string `hcl:"url,optional"`
}

// SigningBlock points at the keypair used when publishing.
type SigningBlock struct {
	Enabled        bool   `hcl:"enabled,optional"`
	PrivateKeyPath string `hcl:"private_key_path,optional"`
	PublicKeyPath  string `hcl:"public_key_path,optional"`
}

// VerificationBlock controls signature enforcement on install.
type VerificationBlock struct {
	RequireSignatures  bool `hcl:"require_signatures,optional"`
	StrictVerification bool `hcl:"strict_verification,optional"`
}

// AuthBlock holds the registry API token, typically sourced via env().
type AuthBlock struct {
	Token string `hcl:"token,optional"`
}

// ResolverBlock tunes the dependency resolver.
type ResolverBlock struct {
	MaxDepth                 int  `hcl:"max_depth,optional"`
	VerboseConflicts         bool `hcl:"verbose_conflicts,optional"`
	ResolutionTimeoutSeconds int  `hcl:"resolution_timeout_seconds,optional"`
}

const (
	envToken     = "UNREALPM_TOKEN"
	envConfigDir = "UNREALPM_CONFIG_DIR"
)

// DefaultConfigDir returns the directory config.hcl and key material live
// under: UNREALPM_CONFIG_DIR if set, else ~/.unrealpm.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".unrealpm"), nil
}

// DefaultPath returns the full path to config.hcl under DefaultConfigDir.
func DefaultPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.hcl"), nil
}

// defaults returns a Config populated with the documented built-in
// defaults, matching what a freshly-installed unrealpm ships with.
func defaults() *Config {
	return &Config{
		Build: &BuildBlock{
			Platforms:     []string{"Win64"},
			Configuration: "Development",
		},
		Registry: &RegistryBlock{
			Type: "file",
			URL:  "http://localhost:3000",
		},
		Signing: &SigningBlock{
			Enabled:        true,
			PrivateKeyPath: "~/.unrealpm/keys/signing_key.pem",
			PublicKeyPath:  "~/.unrealpm/keys/public_key.pem",
		},
		Verification: &VerificationBlock{
			RequireSignatures:  false,
			StrictVerification: true,
		},
		Auth: &AuthBlock{},
		Resolver: &ResolverBlock{
			MaxDepth:                 100,
			VerboseConflicts:         false,
			ResolutionTimeoutSeconds: 0,
		},
	}
}

// Load reads config.hcl from DefaultPath, or returns the built-in
// defaults if the file does not exist. UNREALPM_TOKEN, if non-empty,
// always overrides auth.token regardless of what the file says.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv(envToken); token != "" {
		cfg.Auth.Token = token
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults(), nil
	}

	parser := NewParser()
	file, diags := parser.ParseFile(path)
	if diags.HasErrors() {
		d := diags[0]
		line, col := 0, 0
		if d.Subject != nil {
			line, col = d.Subject.Start.Line, d.Subject.Start.Column
		}
		return nil, verrors.NewConfigError(path, line, col, diags.Error(), nil)
	}

	cfg := defaults()
	decoded := &Config{}
	if diags := DecodeBody(file.Body, NewEvalContext(), decoded); diags.HasErrors() {
		d := diags[0]
		line, col := 0, 0
		if d.Subject != nil {
			line, col = d.Subject.Start.Line, d.Subject.Start.Column
		}
		return nil, verrors.NewConfigError(path, line, col, diags.Error(), nil)
	}

	cfg.Engines = decoded.Engines
	if decoded.Build != nil {
		cfg.Build = decoded.Build
	}
	if decoded.Registry != nil {
		cfg.Registry = decoded.Registry
	}
	if decoded.Signing != nil {
		cfg.Signing = decoded.Signing
	}
	if decoded.Verification != nil {
		cfg.Verification = decoded.Verification
	}
	if decoded.Auth != nil {
		cfg.Auth = decoded.Auth
	}
	if decoded.Resolver != nil {
		cfg.Resolver = decoded.Resolver
	}
	return cfg, nil
}

// Save writes the config back to DefaultPath in HCL form, creating the
// parent directory if needed.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, c.render(), 0o644)
}

// render serializes Config to HCL source using hclwrite, so Save
// round-trips through the same library Load parses with.
func (c *Config) render() []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for _, e := range c.Engines {
		block := body.AppendNewBlock("engine", []string{e.Version})
		block.Body().SetAttributeValue("path", cty.StringVal(e.Path))
		body.AppendNewline()
	}

	if b := c.Build; b != nil {
		block := body.AppendNewBlock("build", nil).Body()
		block.SetAttributeValue("auto_build_on_publish", cty.BoolVal(b.AutoBuildOnPublish))
		block.SetAttributeValue("auto_build_on_install", cty.BoolVal(b.AutoBuildOnInstall))
		block.SetAttributeValue("platforms", stringListVal(b.Platforms))
		block.SetAttributeValue("configuration", cty.StringVal(b.Configuration))
		body.AppendNewline()
	}

	if r := c.Registry; r != nil {
		block := body.AppendNewBlock("registry", nil).Body()
		block.SetAttributeValue("type", cty.StringVal(r.Type))
		block.SetAttributeValue("url", cty.StringVal(r.URL))
		body.AppendNewline()
	}

	if s := c.Signing; s != nil {
		block := body.AppendNewBlock("signing", nil).Body()
		block.SetAttributeValue("enabled", cty.BoolVal(s.Enabled))
		block.SetAttributeValue("private_key_path", cty.StringVal(s.PrivateKeyPath))
		block.SetAttributeValue("public_key_path", cty.StringVal(s.PublicKeyPath))
		body.AppendNewline()
	}

	if v := c.Verification; v != nil {
		block := body.AppendNewBlock("verification", nil).Body()
		block.SetAttributeValue("require_signatures", cty.BoolVal(v.RequireSignatures))
		block.SetAttributeValue("strict_verification", cty.BoolVal(v.StrictVerification))
		body.AppendNewline()
	}

	if a := c.Auth; a != nil && a.Token != "" {
		block := body.AppendNewBlock("auth", nil).Body()
		block.SetAttributeValue("token", cty.StringVal(a.Token))
		body.AppendNewline()
	}

	if r := c.Resolver; r != nil {
		block := body.AppendNewBlock("resolver", nil).Body()
		block.SetAttributeValue("max_depth", cty.NumberIntVal(int64(r.MaxDepth)))
		block.SetAttributeValue("verbose_conflicts", cty.BoolVal(r.VerboseConflicts))
		block.SetAttributeValue("resolution_timeout_seconds", cty.NumberIntVal(int64(r.ResolutionTimeoutSeconds)))
	}

	return f.Bytes()
}

func stringListVal(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, s := range items {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

// FindEngine returns the configured engine installation for version, if any.
func (c *Config) FindEngine(version string) (EngineBlock, bool) {
	for _, e := range c.Engines {
		if e.Version == version {
			return e, true
		}
	}
	return EngineBlock{}, false
}

// AddEngine registers or replaces the installation path for version.
func (c *Config) AddEngine(version, path string) {
	for i, e := range c.Engines {
		if e.Version == version {
			c.Engines[i].Path = path
			return
		}
	}
	c.Engines = append(c.Engines, EngineBlock{Version: version, Path: path})
}

// RemoveEngine drops the configured installation for version, if present.
func (c *Config) RemoveEngine(version string) {
	filtered := c.Engines[:0]
	for _, e := range c.Engines {
		if e.Version != version {
			filtered = append(filtered, e)
		}
	}
	c.Engines = filtered
}
