package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/force-scraper/internal/browser"
	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
)

const (
	incidentsTable  = "#incidents_table"
	incidentsInfo   = "#incidents_table_info"
	incidentsNext   = "#incidents_table_next"
	incidentsLength = "select[name='incidents_table_length']"

	// PageLength is the table length selected before paging.
	PageLength = 100
)

// IncidentHandler receives the incidents table of one department.
type IncidentHandler func(d department.Department, table *department.Table) error

// ScrapeAllIncidents scrapes the incidents table of each department in turn
// and passes it to handle. A department whose table cannot be read, or whose
// handler fails, is logged and skipped.
func (s *Scraper) ScrapeAllIncidents(ctx context.Context, depts []department.Department, handle IncidentHandler) error {
	if err := s.warmUp(ctx, depts); err != nil {
		return err
	}

	for _, d := range depts {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		table, err := s.ScrapeIncidents(ctx, d)
		if err == nil {
			err = handle(d, table)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Skipping department incidents", logger.Fields{"department": d.Name, "error": err.Error()})
			logger.IncrCounter("incidents.skipped")
			continue
		}

		logger.RecordTiming("incidents.scrape", time.Since(start))
		logger.IncrCounter("incidents.departments")
		logger.AddCounter("incidents.rows", int64(table.Len()))
	}
	return nil
}

// ScrapeIncidents returns every row of the department's incidents table.
//
// With an interactive driver the table length is switched to PageLength and
// the table is read page by page through its "next" control. A static driver
// sees the server-rendered table, which already holds every row.
func (s *Scraper) ScrapeIncidents(ctx context.Context, d department.Department) (*department.Table, error) {
	if err := s.visit(ctx, s.FullURL(d.RelativeURL)); err != nil {
		return nil, err
	}

	logger.Debug("Changing table length", logger.Fields{"department": d.Name, "length": PageLength})
	err := s.driver.SelectOption(ctx, incidentsLength, strconv.Itoa(PageLength))
	if errors.Is(err, browser.ErrNotInteractive) {
		return s.readIncidentsTable(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("changing table length: %w", err)
	}

	info, err := s.driver.OuterHTML(ctx, incidentsInfo)
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	total, err := parseTotalRows(info)
	if err != nil {
		return nil, err
	}
	pages := pageCount(total, PageLength)

	logger.Info("Getting incidents table", logger.Fields{
		"department": d.Name,
		"entries":    total,
		"pages":      pages,
	})

	result := &department.Table{}
	for page := 0; page < pages; page++ {
		logger.Debug("Reading table page", logger.Fields{"department": d.Name, "round": page + 1, "of": pages})

		t, err := s.readIncidentsTable(ctx)
		if err != nil {
			return nil, fmt.Errorf("page %d/%d: %w", page+1, pages, err)
		}
		result.Append(t)

		if page < pages-1 {
			if err := s.driver.Click(ctx, incidentsNext); err != nil {
				return nil, fmt.Errorf("advancing to page %d: %w", page+2, err)
			}
		}
	}

	return result, nil
}

func (s *Scraper) readIncidentsTable(ctx context.Context) (*department.Table, error) {
	html, err := s.driver.OuterHTML(ctx, incidentsTable)
	if err != nil {
		return nil, fmt.Errorf("reading incidents table: %w", err)
	}
	return ParseTable(html)
}

// parseTotalRows reads the entry count from an info line such as
// "Showing 1 to 100 of 1,234 entries".
func parseTotalRows(info string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(info))
	if err != nil {
		return 0, fmt.Errorf("parsing table info: %w", err)
	}
	text := collapseWhitespace(doc.Text())

	parts := strings.Split(text, " of ")
	fields := strings.Fields(parts[len(parts)-1])
	if len(fields) == 0 {
		return 0, fmt.Errorf("no entry count in %q", text)
	}

	n, err := strconv.Atoi(strings.ReplaceAll(fields[0], ",", ""))
	if err != nil {
		return 0, fmt.Errorf("parsing entry count in %q: %w", text, err)
	}
	return n, nil
}

// pageCount returns how many pages of size rows are needed to show total
// rows. An empty table still has one page.
func pageCount(total, size int) int {
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// uniqueHeader suffixes repeated column names with .1, .2, ... so that rows
// from later pages can still be aligned by name.
func uniqueHeader(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}

	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

// ParseTable converts the first HTML table in html into a department.Table.
// The header is the last row of the table head; columns with an empty header
// (controls such as expand buttons) are dropped, as are DataTables'
// "no data" placeholder rows. Repeated column names are made unique.
func ParseTable(html string) (*department.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table in markup")
	}

	headerRow := table.Find("thead tr").Last()
	bodyRows := table.Find("tbody tr")
	if headerRow.Length() == 0 {
		headerRow = table.Find("tr").First()
		bodyRows = headerRow.NextAll()
	}

	var keep []int
	var header []string
	headerRow.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		name := collapseWhitespace(cell.Text())
		if name == "" {
			return
		}
		keep = append(keep, i)
		header = append(header, name)
	})
	if len(header) == 0 {
		return nil, errors.New("table has no named columns")
	}
	header = uniqueHeader(header)

	result := &department.Table{Header: header}
	bodyRows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 1 && cells.HasClass("dataTables_empty") {
			return
		}

		row := make([]string, len(keep))
		for j, i := range keep {
			if i < cells.Length() {
				row[j] = collapseWhitespace(cells.Eq(i).Text())
			}
		}
		result.Rows = append(result.Rows, row)
	})

	return result, nil
}
