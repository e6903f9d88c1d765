// Package storage writes scrape results to the output directory.
//
// Department records go to force-nj-scrape-data-YYYY-MM-DD.csv, one file per
// run date; each department's incidents table goes to
// use_of_force_incidents---<name>.csv. Files are UTF-8 CSV without an index
// column. The output directory defaults to data/processed and is created on
// demand; a leading ~/ is expanded to the home directory.
package storage
