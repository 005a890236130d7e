//go:build mage

package main

import "github.com/magefile/mage/mg"

// Extract runs the extraction pipeline over every converted bill.
func Extract() error {
	return run("extract")
}

// ExtractFast extracts with the pattern table only.
func ExtractFast() error {
	return run("extract", "--patterns")
}

// Pipeline converts, extracts, indexes, and exports ontologies for the
// bills already acquired.
func Pipeline() error {
	mg.SerialDeps(Convert, Extract, Index, Ontology)
	return nil
}
