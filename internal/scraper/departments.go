package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
)

// ScrapeDepartments visits every department page in order and returns one
// record per department. A page that cannot be loaded yields a record whose
// statistics are all department.NotFound; only context cancellation stops the
// run early.
func (s *Scraper) ScrapeDepartments(ctx context.Context, depts []department.Department) ([]*department.Record, error) {
	if err := s.warmUp(ctx, depts); err != nil {
		return nil, err
	}

	records := make([]*department.Record, 0, len(depts))
	for i, d := range depts {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		logger.Info("Getting info for department", logger.Fields{
			"department": d.Name,
			"index":      i + 1,
			"total":      len(depts),
		})

		start := time.Now()
		rec, err := s.scrapeDepartment(ctx, d)
		if err != nil {
			return records, err
		}
		logger.RecordTiming("department.scrape", time.Since(start))
		logger.IncrCounter("departments.scraped")

		records = append(records, rec)
	}

	return records, nil
}

func (s *Scraper) scrapeDepartment(ctx context.Context, d department.Department) (*department.Record, error) {
	rec := department.NewRecord(d)

	doc := emptyDocument()
	if err := s.visit(ctx, s.FullURL(d.RelativeURL)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Department page not loaded", logger.Fields{"department": d.Name, "error": err.Error()})
		logger.IncrCounter("departments.unreachable")
	} else if page, err := s.document(ctx); err != nil {
		logger.Warn("Department page not readable", logger.Fields{"department": d.Name, "error": err.Error()})
	} else {
		doc = page
	}

	Extract(doc.Selection, rec)
	rec.Set("full_url", s.FullURL(d.RelativeURL))
	return rec, nil
}

// emptyDocument stands in for a page that could not be loaded, so every
// field group reports NotFound.
func emptyDocument() *goquery.Document {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(""))
	return doc
}
