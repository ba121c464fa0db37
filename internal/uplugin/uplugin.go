// Package uplugin reads the two Unreal Engine project files the core
// treats as external input: a plugin's .uplugin descriptor and a
// project's .uproject descriptor. Both are plain JSON with UE's
// PascalCase field names.
package uplugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// Dependency is one entry of a .uplugin's "Plugins" list: another plugin
// this one requires to be enabled.
type Dependency struct {
	Name    string `json:"Name"`
	Enabled bool   `json:"Enabled"`
}

// Plugin is the fields of a .uplugin file the core consumes. Unknown
// fields (MarketplaceURL, CreatedBy, and the rest of UE's descriptor
// schema) are ignored on decode and not round-tripped.
type Plugin struct {
	FileVersion   int          `json:"FileVersion"`
	Version       RescaledInt  `json:"Version"`
	VersionName   string       `json:"VersionName"`
	FriendlyName  string       `json:"FriendlyName"`
	Description   string       `json:"Description,omitempty"`
	EngineVersion string       `json:"EngineVersion,omitempty"`
	Plugins       []Dependency `json:"Plugins,omitempty"`
}

// RescaledInt is a .uplugin "Version" field, which UE writers emit as
// either a plain integer or, inconsistently, as a major.minor float. The
// float form is rescaled to keep it ordered consistently with the
// integer form: 5.3 -> 53000, 4.27 -> 42700.
type RescaledInt int

// UnmarshalJSON accepts both a JSON integer and a JSON float, rescaling
// the float form via major*10000 + minor*100 where major is the integer
// part and minor is round((value-major)*100).
func (r *RescaledInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("Version must be a number: %w", err)
	}
	if f == float64(int64(f)) {
		*r = RescaledInt(int64(f))
		return nil
	}
	major := int64(f)
	minor := int64((f-float64(major))*100 + 0.5)
	*r = RescaledInt(major*10000 + minor*100)
	return nil
}

// FindPlugin locates the single .uplugin file directly inside dir.
func FindPlugin(dir string) (string, error) {
	return findByExt(dir, ".uplugin")
}

// LoadPlugin reads and parses the .uplugin file at path.
func LoadPlugin(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to read .uplugin file", err)
	}
	var p Plugin
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to parse .uplugin file", err)
	}
	return &p, nil
}

// NameFromPath returns the plugin name implied by a .uplugin file's
// basename, per UE convention: <PluginName>.uplugin.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Project is the fields of a .uproject file the core consumes.
type Project struct {
	FileVersion       int             `json:"FileVersion"`
	EngineAssociation string          `json:"EngineAssociation"`
	Category          string          `json:"Category,omitempty"`
	Description       string          `json:"Description,omitempty"`
	Plugins           []ProjectPlugin `json:"Plugins,omitempty"`
}

// ProjectPlugin is one entry of a .uproject's "Plugins" list.
type ProjectPlugin struct {
	Name           string `json:"Name"`
	Enabled        bool   `json:"Enabled"`
	MarketplaceURL string `json:"MarketplaceURL,omitempty"`
}

// FindProject locates the single .uproject file directly inside dir.
func FindProject(dir string) (string, error) {
	return findByExt(dir, ".uproject")
}

// LoadProject reads and parses the .uproject file at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to read .uproject file", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to parse .uproject file", err)
	}
	return &p, nil
}

func findByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", verrors.NewConfigError(dir, 0, 0, "failed to read directory", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ext {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", verrors.NewNotFoundError(strings.TrimPrefix(ext, "."), dir)
}
