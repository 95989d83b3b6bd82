package config

// Version is the vitiapi binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/vitiapi/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
