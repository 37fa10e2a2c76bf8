package config

var (
	// Version is the ledgerctl version number, injected during build time.
	Version = "0.0.0"

	// CommitHash is the git commit hash ledgerctl was built from, injected during build time.
	CommitHash = ""

	// BuildTimestamp is the timestamp at which ledgerctl was built, injected during build time.
	BuildTimestamp = ""

	// Branch is the git branch ledgerctl was built from, injected during build time.
	Branch = ""
)
