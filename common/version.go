package common

const (
	major = 0
	minor = 1
	patch = 0

	// Version is the version of every contract in this repository.
	Version = major*1_000_000 + minor*1_000 + patch
)
