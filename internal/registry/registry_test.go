package registry

import "testing"

func TestParseBackend(t *testing.T) {
	cases := []struct {
		url     string
		want    BackendKind
		wantErr bool
	}{
		{"file:///tmp/registry", BackendFile, false},
		{"/tmp/registry", BackendFile, false},
		{"https://registry.example.com", BackendHTTP, false},
		{"http://localhost:8080", BackendHTTP, false},
		{"s3://bucket/path", BackendUnknown, true},
	}

	for _, tc := range cases {
		got, err := ParseBackend(tc.url)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseBackend(%q) expected error", tc.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBackend(%q) unexpected error: %v", tc.url, err)
		}
		if got != tc.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestEngineCompatibilitySupports(t *testing.T) {
	universal := EngineCompatibility{}
	if !universal.Supports(5, 3) {
		t.Error("universal compatibility should support any engine")
	}

	multi := EngineCompatibility{IsMultiEngine: true, Tags: []string{"5.3", "5.4"}}
	if !multi.Supports(5, 3) || !multi.Supports(5, 4) {
		t.Error("multi-engine should support its listed tags")
	}
	if multi.Supports(5, 2) {
		t.Error("multi-engine should not support an unlisted tag")
	}

	multiNoTags := EngineCompatibility{IsMultiEngine: true}
	if !multiNoTags.IsUniversal() {
		t.Error("multi-engine with no declared tags should be universal")
	}
	if !multiNoTags.Supports(5, 0) || !multiNoTags.Supports(4, 27) {
		t.Error("multi-engine with no declared tags should support any engine")
	}

	specific := EngineCompatibility{EngineMajor: 5, EngineMinor: 3}
	if !specific.Supports(5, 3) {
		t.Error("engine-specific should support its exact major.minor")
	}
	if specific.Supports(5, 4) {
		t.Error("engine-specific should not support a different minor")
	}
}

func TestPackageMetadataLatestSkipsYanked(t *testing.T) {
	meta := &PackageMetadata{
		Name: "GameplayAbilities",
		Versions: []PackageVersion{
			{Version: "1.0.0"},
			{Version: "2.0.0", Yanked: true},
			{Version: "1.5.0"},
		},
	}

	latest := meta.Latest()
	if latest == nil || latest.Version != "1.5.0" {
		t.Errorf("Latest() = %v, want 1.5.0", latest)
	}
}

func TestPackageMetadataFind(t *testing.T) {
	meta := &PackageMetadata{Versions: []PackageVersion{{Version: "1.0.0"}, {Version: "2.0.0"}}}

	if v := meta.Find("2.0.0"); v == nil {
		t.Error("Find(2.0.0) should return a match")
	}
	if v := meta.Find("3.0.0"); v != nil {
		t.Error("Find(3.0.0) should return nil")
	}
}
