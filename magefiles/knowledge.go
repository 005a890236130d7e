//go:build mage

package main

// Index ingests extraction documents into the SQLite knowledge base.
func Index() error {
	return run("knowledge", "store")
}

// Ontology writes the combined OWL and GraphML exports.
func Ontology() error {
	if err := run("ontology", "owl"); err != nil {
		return err
	}
	return run("ontology", "graphml")
}
