package shared

import "github.com/sirupsen/logrus"

// Log is the package-level structured logger both client and server build
// on via WithField/WithFields. Callers set the level (e.g. from a
// RUST_LOG-style environment variable) once at startup.
var Log = logrus.New()
