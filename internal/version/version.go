package version

// Version is the application version string.
// Overridden at build time via -ldflags "-X labelpress/internal/version.Version=x.y.z"
var Version = "dev"
