package version

// Version is the current landrop release. Overridden at build time via
// -ldflags "-X github.com/landrop/landrop/internal/version.Version=...".
var Version = "v0.1.0"
