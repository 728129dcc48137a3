package masterpiece

import (
	"strconv"
	"strings"
)

// The provider reports the same logical values under many field names across
// API versions. Each lookup below is an ordered list of dotted accessor paths
// evaluated first-match-wins.
var (
	requestIDPaths = []string{"requestId", "request_id", "id", "data.requestId"}

	statusPaths = []string{"status", "state", "data.status"}

	// GLB is preferred over other 3D model formats.
	modelURLPaths = []string{
		"outputs.glb",
		"outputs.fbx",
		"outputs.usdz",
		"output.glb",
		"output.url",
		"output.modelUrl",
		"output.model_url",
		"result.url",
		"result.modelUrl",
		"result.model_url",
		"modelUrl",
		"model_url",
		"url",
		"data.url",
		"data.output.url",
		"data.outputs.glb",
		"data.modelUrl",
	}

	failureReasonPaths = []string{"error", "message", "error_message", "errorMessage"}

	uploadURLPaths = []string{"uploadUrl", "url", "signedUrl"}
	assetIDPaths   = []string{"requestId", "assetId", "data.requestId"}
)

type pollState int

const (
	pollRetry pollState = iota
	pollSucceeded
	pollFailed
)

var (
	terminalSuccess = map[string]struct{}{
		"complete": {}, "completed": {}, "success": {}, "done": {}, "finished": {},
	}
	terminalFailure = map[string]struct{}{
		"failed": {}, "error": {}, "failure": {},
	}
	inProgress = map[string]struct{}{
		"pending": {}, "processing": {}, "in_progress": {}, "queued": {}, "running": {},
	}
)

// classifyStatus maps a reported status value to a poll decision. Unknown
// values are treated as transient so new provider statuses do not break
// in-flight jobs; callers log those distinctly.
func classifyStatus(status string) (pollState, bool) {
	s := strings.ToLower(strings.TrimSpace(status))
	if _, ok := terminalSuccess[s]; ok {
		return pollSucceeded, true
	}
	if _, ok := terminalFailure[s]; ok {
		return pollFailed, true
	}
	if _, ok := inProgress[s]; ok {
		return pollRetry, true
	}
	return pollRetry, false
}

// lookupString walks each dotted path through the decoded JSON document and
// returns the first non-empty string value found.
func lookupString(doc map[string]any, paths []string) string {
	for _, path := range paths {
		if v := valueAt(doc, path); v != "" {
			return v
		}
	}
	return ""
}

func valueAt(doc map[string]any, path string) string {
	var current any = doc
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = node[key]
		if !ok {
			return ""
		}
	}
	switch v := current.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
