// Package main provides the entry point for the dolapscan CLI.
//
// Dolapscan builds a supervised dataset from the Dolap second-hand fashion
// marketplace: it snapshots listings into dated cohorts and, after a
// maturation window, re-visits each listing to record whether it sold.
//
// Usage:
//
//	dolapscan scrape --categories kazak,elbise
//	dolapscan label
//	dolapscan status
//
// See --help for all available options.
package main

// main is the entry point for dolapscan.
func main() {
	Execute()
}
