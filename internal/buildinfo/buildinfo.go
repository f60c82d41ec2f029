package buildinfo

import "runtime/debug"

var version = "dev"

// SetVersion overrides the reported version. cmd/qttester passes the value
// linked into main.version; an empty string keeps the module version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Version returns the linked version, else the module version recorded in the
// binary, else "dev".
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
