// Package coreext imports every optional built-in for its side effects. A host
// that wants RegExp, Date, and Collector available to scripts imports this
// package before creating any VM.
package coreext

import (
	// importing for side effects
	_ "github.com/zephyrtronium/jsvm/coreext/collector"
	_ "github.com/zephyrtronium/jsvm/coreext/date"
	_ "github.com/zephyrtronium/jsvm/coreext/regexp"
)
