// Package utils holds small helpers shared across packages.
package utils

import "io"

// Close closes c and ignores any error. For best-effort cleanup in
// defer where the error carries no signal.
func Close(c io.Closer) {
	_ = c.Close()
}
