package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// HTTPRegistry is the remote registry variant of spec.md §4.C, speaking
// the wire contract:
//
//	GET    /api/v1/packages/{name}
//	GET    /api/v1/packages/{name}/{version}
//	GET    /api/v1/packages/{name}/{version}/download
//	GET    /api/v1/packages/{name}/{version}/signature
//	GET    /api/v1/packages?q={query}
//	POST   /api/v1/packages              (multipart publish)
//	DELETE /api/v1/packages/{name}[/{version}]
//	PUT    /api/v1/packages/{name}/{version}/yank
//	DELETE /api/v1/packages/{name}/{version}/yank
type HTTPRegistry struct {
	baseURL  string
	apiToken string
	client   *http.Client
	cache    *Cache
}

// NewHTTPRegistry creates an HTTP(S) registry client against baseURL.
// apiToken may be empty for read-only anonymous use.
func NewHTTPRegistry(baseURL, apiToken string) (*HTTPRegistry, error) {
	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		return nil, verrors.NewRegistryError(baseURL, "connect", fmt.Errorf("expected http:// or https:// URL"))
	}
	cache, err := DefaultCache()
	if err != nil {
		return nil, err
	}
	return &HTTPRegistry{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
	}, nil
}

func (r *HTTPRegistry) Protocol() string { return "https" }

// formatAuthHeader implements the total token-format dispatch rule from
// spec.md §4.C: a token prefixed "urpm_" is a server-issued API token and
// uses the "Token" scheme; anything else (a JWT, a personal token from
// another system) uses "Bearer".
func formatAuthHeader(token string) string {
	if strings.HasPrefix(token, "urpm_") {
		return "Token " + token
	}
	return "Bearer " + token
}

func (r *HTTPRegistry) authenticatedRequest(method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequest(method, r.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if r.apiToken != "" {
		req.Header.Set("Authorization", formatAuthHeader(r.apiToken))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (r *HTTPRegistry) classifyError(resp *http.Response, op string) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return verrors.NewNotFoundError("package", "")
	case http.StatusUnauthorized:
		return verrors.NewAuthError("unauthorized", "token missing or invalid")
	case http.StatusForbidden:
		return verrors.NewAuthError("forbidden", "token lacks permission for this operation")
	case http.StatusConflict:
		return verrors.NewRemoteConflictError("", "version already exists")
	case http.StatusRequestEntityTooLarge:
		return verrors.NewRegistryError(r.baseURL, op, fmt.Errorf("payload too large"))
	default:
		if resp.StatusCode >= 500 {
			return verrors.NewTransportError(r.baseURL, fmt.Errorf("server error: HTTP %d", resp.StatusCode))
		}
		return verrors.NewRegistryError(r.baseURL, op, fmt.Errorf("HTTP %d", resp.StatusCode))
	}
}

type apiVersionInfo struct {
	Version       string   `json:"version"`
	PublishedAt   string   `json:"published_at,omitempty"`
	Checksum      string   `json:"checksum"`
	TarballURL    string   `json:"tarball_url,omitempty"`
	EngineVersions []string `json:"engine_versions,omitempty"`
	EngineMajor   int      `json:"engine_major,omitempty"`
	EngineMinor   int      `json:"engine_minor,omitempty"`
	IsMultiEngine bool     `json:"is_multi_engine"`
	PackageType   string   `json:"package_type"`
	Downloads     int      `json:"downloads,omitempty"`
	PublicKey     string   `json:"public_key,omitempty"`
	SignedAt      string   `json:"signed_at,omitempty"`
	Yanked        bool     `json:"yanked"`
}

type apiDependency struct {
	Name             string `json:"name"`
	VersionConstraint string `json:"version_constraint"`
}

type apiVersionDetail struct {
	apiVersionInfo
	Dependencies []apiDependency `json:"dependencies"`
}

type apiPackageResponse struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Versions    []apiVersionInfo `json:"versions"`
}

type apiPackageListResponse struct {
	Packages []apiPackageInfo `json:"packages"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type apiPackageInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	LatestVersion string `json:"latest_version,omitempty"`
}

func toEngineCompatibility(v apiVersionInfo) EngineCompatibility {
	return EngineCompatibility{
		Tags:          v.EngineVersions,
		EngineMajor:   v.EngineMajor,
		EngineMinor:   v.EngineMinor,
		IsMultiEngine: v.IsMultiEngine,
	}
}

// GetMetadata fetches GET /api/v1/packages/{name} and the per-version
// detail needed to populate dependencies for each version.
func (r *HTTPRegistry) GetMetadata(name string) (*PackageMetadata, error) {
	req, err := r.authenticatedRequest(http.MethodGet, "/api/v1/packages/"+url.PathEscape(name), nil, "")
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.classifyError(resp, "fetch")
	}

	var apiResp apiPackageResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, verrors.NewRegistryError(r.baseURL, "fetch", fmt.Errorf("malformed response: %w", err))
	}

	meta := &PackageMetadata{Name: apiResp.Name, Description: apiResp.Description}
	for _, v := range apiResp.Versions {
		detail, err := r.getVersionDetail(name, v.Version)
		var deps []Dependency
		if err == nil {
			for _, d := range detail.Dependencies {
				deps = append(deps, Dependency{Name: d.Name, Range: d.VersionConstraint})
			}
		}
		meta.Versions = append(meta.Versions, PackageVersion{
			Name:         name,
			Version:      v.Version,
			Checksum:     v.Checksum,
			Dependencies: deps,
			Engine:       toEngineCompatibility(v),
			Kind:         PackageKind(v.PackageType),
			PublicKey:    v.PublicKey,
			SignedAt:     v.SignedAt,
			PublishedAt:  v.PublishedAt,
			Downloads:    v.Downloads,
			Yanked:       v.Yanked,
		})
	}
	return meta, nil
}

func (r *HTTPRegistry) getVersionDetail(name, version string) (*apiVersionDetail, error) {
	path := fmt.Sprintf("/api/v1/packages/%s/%s", url.PathEscape(name), url.PathEscape(version))
	req, err := r.authenticatedRequest(http.MethodGet, path, nil, "")
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.classifyError(resp, "fetch")
	}

	var detail apiVersionDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, verrors.NewRegistryError(r.baseURL, "fetch", fmt.Errorf("malformed response: %w", err))
	}
	return &detail, nil
}

// DownloadTarball is cache-first: if a cached copy already matches
// expectedChecksum, the network is never touched.
func (r *HTTPRegistry) DownloadTarball(name, version, expectedChecksum string) (string, error) {
	if r.cache.HasValidTarball(name, version, expectedChecksum) {
		return r.cache.TarballPath(name, version), nil
	}

	path := fmt.Sprintf("/api/v1/packages/%s/%s/download", url.PathEscape(name), url.PathEscape(version))
	req, err := r.authenticatedRequest(http.MethodGet, path, nil, "")
	if err != nil {
		return "", verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", r.classifyError(resp, "download")
	}

	dest, err := r.cache.PlaceTarball(name, version, resp.Body)
	if err != nil {
		return "", verrors.NewRegistryError(r.baseURL, "download", err)
	}

	actual, err := ChecksumFile(dest)
	if err != nil {
		return "", verrors.NewRegistryError(r.baseURL, "download", err)
	}
	if actual != expectedChecksum {
		return "", verrors.NewIntegrityError("checksum", expectedChecksum, actual, "")
	}
	_ = r.cache.LinkContent(actual, dest) // best-effort dedup bookkeeping
	return dest, nil
}

// DownloadSignature fetches the detached signature for (name, version).
// A 404 here means "signature not found on server", surfaced as a
// NotFoundError so the signing policy layer (require_signatures) can
// decide whether that's fatal.
func (r *HTTPRegistry) DownloadSignature(name, version string) (string, error) {
	path := fmt.Sprintf("/api/v1/packages/%s/%s/signature", url.PathEscape(name), url.PathEscape(version))
	req, err := r.authenticatedRequest(http.MethodGet, path, nil, "")
	if err != nil {
		return "", verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", verrors.NewNotFoundError("signature", name+"@"+version)
	}
	if resp.StatusCode != http.StatusOK {
		return "", r.classifyError(resp, "download")
	}

	return r.cache.PlaceSignature(name, version, resp.Body)
}

// Search issues GET /api/v1/packages?q={query}. An empty query omits the
// parameter entirely, matching the server's "browse all" behavior.
func (r *HTTPRegistry) Search(query string) ([]SearchResult, error) {
	path := "/api/v1/packages"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}

	req, err := r.authenticatedRequest(http.MethodGet, path, nil, "")
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.classifyError(resp, "search")
	}

	var listResp apiPackageListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, verrors.NewRegistryError(r.baseURL, "search", fmt.Errorf("malformed response: %w", err))
	}

	results := make([]SearchResult, 0, len(listResp.Packages))
	for _, p := range listResp.Packages {
		results = append(results, SearchResult{Name: p.Name, Description: p.Description, LatestVersion: p.LatestVersion})
	}
	return results, nil
}

// Publish uploads a tarball, optional signature, and JSON metadata as a
// multipart POST to /api/v1/packages.
func (r *HTTPRegistry) Publish(tarballPath, signaturePath string, metadata PublishMetadata) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writeMultipartFile(writer, "tarball", tarballPath); err != nil {
		return verrors.NewRegistryError(r.baseURL, "publish", err)
	}
	if signaturePath != "" {
		if err := writeMultipartFile(writer, "signature", signaturePath); err != nil {
			return verrors.NewRegistryError(r.baseURL, "publish", err)
		}
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return verrors.NewRegistryError(r.baseURL, "publish", err)
	}
	if err := writer.WriteField("metadata", string(metaJSON)); err != nil {
		return verrors.NewRegistryError(r.baseURL, "publish", err)
	}
	if err := writer.Close(); err != nil {
		return verrors.NewRegistryError(r.baseURL, "publish", err)
	}

	req, err := r.authenticatedRequest(http.MethodPost, "/api/v1/packages", &body, writer.FormDataContentType())
	if err != nil {
		return verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return r.classifyError(resp, "publish")
	}
	return nil
}

// Unpublish issues DELETE /api/v1/packages/{name}[/{version}].
func (r *HTTPRegistry) Unpublish(name, version string) error {
	path := "/api/v1/packages/" + url.PathEscape(name)
	if version != "" {
		path += "/" + url.PathEscape(version)
	}
	return r.writeOnlyRequest(http.MethodDelete, path, "unpublish")
}

// Yank issues PUT .../yank; Unyank issues DELETE .../yank.
func (r *HTTPRegistry) Yank(name, version string) error {
	path := fmt.Sprintf("/api/v1/packages/%s/%s/yank", url.PathEscape(name), url.PathEscape(version))
	return r.writeOnlyRequest(http.MethodPut, path, "yank")
}

func (r *HTTPRegistry) Unyank(name, version string) error {
	path := fmt.Sprintf("/api/v1/packages/%s/%s/yank", url.PathEscape(name), url.PathEscape(version))
	return r.writeOnlyRequest(http.MethodDelete, path, "yank")
}

func (r *HTTPRegistry) writeOnlyRequest(method, path, op string) error {
	req, err := r.authenticatedRequest(method, path, nil, "")
	if err != nil {
		return verrors.NewTransportError(r.baseURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return verrors.NewTransportError(r.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return r.classifyError(resp, op)
	}
	return nil
}

func writeMultipartFile(writer *multipart.Writer, field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
