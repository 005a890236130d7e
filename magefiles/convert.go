//go:build mage

package main

// Convert turns every acquired bill into plain text.
func Convert() error {
	return run("convert")
}
