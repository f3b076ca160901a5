// Package main provides the entry point for the labelscan CLI.
//
// labelscan reads a food ingredient label (typed, piped or photographed),
// classifies every ingredient and scores the label from 0 to 100.
// Results are kept in a local history for 24 hours unless saved.
//
// Usage:
//
//	labelscan scan "Sugar, Water, E102"
//	labelscan scan --image label.jpg
//	labelscan history
//
// See --help for all available options.
package main

// main is the entry point for labelscan.
func main() {
	Execute()
}
