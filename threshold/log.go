package threshold

import "github.com/btcsuite/btclog"

// log is the package-wide logger for threshold operations. It is
// disabled by default; callers wire in a real logger with UseLogger.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
