// Package version holds build metadata, set with
//
//	go build -ldflags "-X github.com/kailas-cloud/techsearch/internal/version.Version=v1.2.0 ..."
package version

//nolint:revive,gochecknoglobals // Overwritten by the linker.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the metadata on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
