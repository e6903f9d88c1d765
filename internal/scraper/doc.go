// Package scraper navigates force.nj.com and extracts use-of-force data.
//
// The listing page carries a dropdown (#mylist) with one option per police
// department. ScrapeDepartments visits every department page and pulls a fixed
// set of statistics into a department.Record; every field group that cannot be
// read is filled with department.NotFound instead of failing the run.
// ScrapeIncidents pages through the DataTables incidents table of a department
// and returns the concatenated rows.
//
// The scraper reads pages through a browser.Driver and parses snapshots of the
// current document with goquery, so extraction can be exercised against saved
// page fixtures.
package scraper
