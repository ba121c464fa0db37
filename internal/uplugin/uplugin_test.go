package uplugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRescaledIntAcceptsPlainInteger(t *testing.T) {
	var r RescaledInt
	if err := json.Unmarshal([]byte("1"), &r); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if r != 1 {
		t.Errorf("got %d, want 1", r)
	}
}

func TestRescaledIntRescalesFloat(t *testing.T) {
	cases := map[string]RescaledInt{
		"5.3":  53000,
		"4.27": 42700,
	}
	for input, want := range cases {
		var r RescaledInt
		if err := json.Unmarshal([]byte(input), &r); err != nil {
			t.Fatalf("UnmarshalJSON(%s) error = %v", input, err)
		}
		if r != want {
			t.Errorf("UnmarshalJSON(%s) = %d, want %d", input, r, want)
		}
	}
}

func TestLoadPluginParsesDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MyPlugin.uplugin")
	content := `{
		"FileVersion": 3,
		"Version": 1,
		"VersionName": "1.0.0",
		"FriendlyName": "My Plugin",
		"Category": "Gameplay",
		"EngineVersion": "5.3.0",
		"IsBetaVersion": false,
		"Plugins": [{"Name": "OtherPlugin", "Enabled": true}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPlugin(path)
	if err != nil {
		t.Fatalf("LoadPlugin() error = %v", err)
	}
	if p.FileVersion != 3 {
		t.Errorf("FileVersion = %d, want 3", p.FileVersion)
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if p.VersionName != "1.0.0" {
		t.Errorf("VersionName = %q, want 1.0.0", p.VersionName)
	}
	if p.FriendlyName != "My Plugin" {
		t.Errorf("FriendlyName = %q, want %q", p.FriendlyName, "My Plugin")
	}
	if len(p.Plugins) != 1 || p.Plugins[0].Name != "OtherPlugin" {
		t.Errorf("Plugins = %+v, want one entry named OtherPlugin", p.Plugins)
	}
}

func TestNameFromPath(t *testing.T) {
	got := NameFromPath("/path/to/MyPlugin.uplugin")
	if got != "MyPlugin" {
		t.Errorf("NameFromPath() = %q, want MyPlugin", got)
	}
}

func TestFindPluginLocatesSoleDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ChromaSense.uplugin")
	if err := os.WriteFile(path, []byte(`{"FileVersion":3,"Version":1,"VersionName":"1.0.0","FriendlyName":"ChromaSense"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindPlugin(dir)
	if err != nil {
		t.Fatalf("FindPlugin() error = %v", err)
	}
	if found != path {
		t.Errorf("FindPlugin() = %q, want %q", found, path)
	}
}

func TestFindPluginErrorsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindPlugin(dir); err == nil {
		t.Fatal("expected an error when no .uplugin file exists")
	}
}

func TestLoadProjectParsesEngineAssociation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Game.uproject")
	content := `{"FileVersion":3,"EngineAssociation":"5.3","Plugins":[{"Name":"ChromaSense","Enabled":true}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if p.EngineAssociation != "5.3" {
		t.Errorf("EngineAssociation = %q, want 5.3", p.EngineAssociation)
	}
	if len(p.Plugins) != 1 || p.Plugins[0].Name != "ChromaSense" {
		t.Errorf("Plugins = %+v, want one entry named ChromaSense", p.Plugins)
	}
}
