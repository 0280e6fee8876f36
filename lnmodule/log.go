package lnmodule

import "github.com/btcsuite/btclog"

// log is this package's logger; disabled until the caller wires one in
// via UseLogger, matching the rest of the module's packages.
var log = btclog.Disabled

// UseLogger plugs the module's logging into the caller's btclog
// backend. Subpackages (contractdb, threshold, contractcourt) are
// wired independently through their own UseLogger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
