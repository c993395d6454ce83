package routing

import "strings"

// Target names the asset mount a request is served from.
type Target string

const (
	TargetIndex Target = "index"
	TargetFiles Target = "files"
	TargetJS    Target = "js"
	TargetCSS   Target = "css"
	TargetEPUB  Target = "epub"
)

var prefixes = []struct {
	prefix string
	target Target
}{
	{prefix: "/js/", target: TargetJS},
	{prefix: "/css/", target: TargetCSS},
	{prefix: "/epub/", target: TargetEPUB},
}

// Match resolves an incoming URL path to a mount and the logical name
// relative to that mount.
func Match(path string) (Target, string, bool) {
	if path == "/" {
		return TargetIndex, "", true
	}
	if !strings.HasPrefix(path, "/") {
		return "", "", false
	}

	for _, p := range prefixes {
		if name, ok := strings.CutPrefix(path, p.prefix); ok {
			return p.target, name, true
		}
	}

	return TargetFiles, strings.TrimPrefix(path, "/"), true
}
