package hubversion

// Set via -ldflags at build time.
var (
	version   string
	commit    string
	buildTime string
)

// Version returns the hub version.
func Version() string {
	if version == "" {
		version = "dev"
	}

	return version
}

// Commit returns the git commit the binary was built from.
func Commit() string {
	return commit
}

// BuildTime returns when the binary was built.
func BuildTime() string {
	return buildTime
}
