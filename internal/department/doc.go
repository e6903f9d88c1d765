// Package department defines the records produced by the force.nj.com scrapers.
//
// A Department is one entry of the listing dropdown. A Record is the flat,
// ordered set of fields extracted from a department page; its columns are
// whatever the page happened to expose, so CSV headers are derived at write
// time with Columns. A Table holds the textual rows of an incidents table,
// concatenated across pages.
package department
