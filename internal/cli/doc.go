// Package cli implements the command-line interface for force-scraper.
//
// The cli package provides the Cobra-based commands: departments scrapes the
// statistics of every department page into one CSV file, incidents pages
// through each department's incidents table into per-department CSV files,
// and list prints the departments found on the listing page. It wires the
// config, browser, scraper, storage, metrics and logger packages together.
package cli
