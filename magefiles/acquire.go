//go:build mage

package main

import "strings"

// Acquire downloads bills by identifier, e.g. mage acquire "HB767 SB2182_SD1".
func Acquire(bills string) error {
	return run(append([]string{"acquire"}, strings.Fields(bills)...)...)
}
