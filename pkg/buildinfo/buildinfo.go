// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/zarrlens/zarrlens/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/zarrlens/zarrlens/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/zarrlens/zarrlens/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/zarrlens
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies zarrlens in outgoing HTTP requests.
func UserAgent() string {
	return "zarrlens/" + Version
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
