package utils

import (
	"strings"

	"golang.org/x/mod/semver"
)

const (
	RequiredPushServerVersion string = "v1.0.0"
)

// CheckPushServerVersion reports whether the version announced by a push
// server is at least RequiredPushServerVersion
func CheckPushServerVersion(toCheck string) bool {
	return CheckMinVersion(toCheck, RequiredPushServerVersion)
}

func CheckMinVersion(toCheck, required string) bool {
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !semver.IsValid(toCheck) {
		return false
	}
	return semver.Compare(toCheck, required) >= 0
}
