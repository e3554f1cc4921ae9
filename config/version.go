package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const ServiceName = "townrec"

// Set at build time with -ldflags "-X github.com/introduceourtown/townrec/config.Version=..."
var (
	Version       = "dev"
	CommitHash    = "n/a"
	BuildTime     = "n/a"
	VersionString = fmt.Sprintf("%s-%s (%s)", Version, CommitHash, BuildTime)
)

// LogFields identifies this build on every log entry.
func LogFields() logrus.Fields {
	return logrus.Fields{
		"service": ServiceName,
		"version": Version,
	}
}
