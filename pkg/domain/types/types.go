package types

// Version is the application version, overwritten at build time via
// -ldflags "-X github.com/m-mizutani/drover/pkg/domain/types.Version=..."
var Version = "v0.1.0"

// ServiceName is used for health responses and error reporting.
const ServiceName = "drover"
