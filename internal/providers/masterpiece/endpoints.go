package masterpiece

import (
	"regexp"
	"strings"
)

// requestIDPlaceholder is substituted with the provider-assigned request id in
// status endpoint patterns.
const requestIDPlaceholder = "{requestId}"

var (
	versionSuffix = regexp.MustCompile(`/v\d+$`)
	versionPrefix = regexp.MustCompile(`^/v\d+/`)
)

// The Masterpiece X API has shipped under several path shapes across versions.
// Candidates are probed in order and the first shape that responds wins, so
// configured overrides must stay ahead of these built-in defaults.
var (
	defaultGeneratePaths = []string{
		"/functions/imageto3d",
		"/v2/functions/imageto3d",
		"/functions/image-to-3d",
		"/v2/functions/image-to-3d",
	}
	defaultStatusPaths = []string{
		"/v2/status/{requestId}",
		"/status/{requestId}",
		"/v2/functions/imageto3d/status/{requestId}",
		"/functions/imageto3d/{requestId}",
		"/v2/functions/image-to-3d/status/{requestId}",
		"/functions/image-to-3d/{requestId}",
		"/v2/requests/{requestId}",
		"/requests/{requestId}",
	}
	defaultAssetPaths = []string{
		"/assets/create",
		"/v2/assets/create",
	}
)

func parsePathList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func sanitizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// ensurePlaceholder appends a request-id segment to status paths that were
// configured without one, so every candidate is usable by substitution.
func ensurePlaceholder(path string) string {
	if path == "" || strings.Contains(path, requestIDPlaceholder) {
		return path
	}
	return strings.TrimRight(path, "/") + "/" + requestIDPlaceholder
}

// buildURL joins a path to a base URL. Paths that are already absolute URLs
// are used verbatim.
func buildURL(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base+path, "/")
}

// resolveEndpoints produces the ordered, de-duplicated candidate list for one
// API role. Override paths are tried before defaults. When the base URL ends
// in a version segment and a path carries its own, the version-stripped base
// is used for that combination so candidates never double the version, and
// the stripped base is additionally tried with every path to cover providers
// that moved the version into the path entirely. Pure computation, no I/O.
func resolveEndpoints(baseURL string, overrides, defaults []string, status bool) []string {
	base := sanitizeBaseURL(baseURL)
	if base == "" {
		return nil
	}
	stripped := versionSuffix.ReplaceAllString(base, "")

	paths := make([]string, 0, len(overrides)+len(defaults))
	seenPath := make(map[string]struct{})
	for _, p := range append(append([]string{}, overrides...), defaults...) {
		if _, ok := seenPath[p]; ok {
			continue
		}
		seenPath[p] = struct{}{}
		paths = append(paths, p)
	}

	bases := []string{base}
	if stripped != base && stripped != "" {
		bases = append(bases, stripped)
	}

	var out []string
	seen := make(map[string]struct{})
	for _, b := range bases {
		baseHasVersion := versionSuffix.MatchString(b)
		for _, p := range paths {
			if status {
				p = ensurePlaceholder(p)
			}
			target := b
			if baseHasVersion && versionPrefix.MatchString(p) && stripped != "" {
				target = stripped
			}
			u := buildURL(target, p)
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

func (c *Client) generateEndpoints() []string {
	return resolveEndpoints(c.baseURL, c.generateOverrides, defaultGeneratePaths, false)
}

func (c *Client) statusEndpoints() []string {
	return resolveEndpoints(c.baseURL, c.statusOverrides, defaultStatusPaths, true)
}

func (c *Client) assetEndpoints() []string {
	return resolveEndpoints(c.baseURL, c.assetOverrides, defaultAssetPaths, false)
}
