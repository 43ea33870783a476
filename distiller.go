package distiller

// Version is the release reported by the CLI. Overridden at link time with
// -ldflags "-X github.com/jward/distiller.Version=...".
var Version = "dev"
