package utils

import (
	"fmt"
	"strings"
)

// NoColor gates every colorized helper below. Nothing in this module assigns
// it, so the -no-colorize option (config.Options.NoColor) does not reach it;
// package expr also builds its color helpers once, at package initialization.
var NoColor bool

// CanColorize wraps a color.SprintFunc-shaped function so that it degrades to
// plain concatenation when colorized output has been disabled (mirrors the
// teacher's own no-colorize escape hatch).
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if NoColor {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}
