package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/force-scraper/internal/department"
	"github.com/pfrederiksen/force-scraper/internal/logger"
)

var errMissing = errors.New("element not found")

// find follows a chain of selectors, taking the first match at every step.
func find(sel *goquery.Selection, selectors ...string) (*goquery.Selection, error) {
	for _, s := range selectors {
		sel = sel.Find(s).First()
		if sel.Length() == 0 {
			return nil, fmt.Errorf("%s: %w", s, errMissing)
		}
	}
	return sel, nil
}

func findHTML(sel *goquery.Selection, selectors ...string) (string, error) {
	match, err := find(sel, selectors...)
	if err != nil {
		return "", err
	}
	return innerHTML(match)
}

// field groups; each either sets all of its columns or none of them.

type likelihoodResult struct {
	property   string
	number     string
	moreOrLess string
}

// likelihood reads the "N times more likely" block on one side of the racial
// breakdown: left is per population, right is per arrests.
func likelihood(doc *goquery.Selection, side string) (likelihoodResult, error) {
	block, err := find(doc, ".racial_breakdown", "."+side)
	if err != nil {
		return likelihoodResult{}, err
	}

	property, err := findHTML(block, ".important_num2")
	if err != nil {
		return likelihoodResult{}, err
	}
	property = strings.ReplaceAll(strings.TrimSpace(property), ",", "")
	if property == "" {
		return likelihoodResult{}, fmt.Errorf("empty likelihood label: %w", errMissing)
	}

	number, err := findHTML(block, ".important_num1")
	if err != nil {
		return likelihoodResult{}, err
	}

	labels := block.Find(".important_num2")
	moreOrLess, err := innerHTML(labels.Last())
	if err != nil {
		return likelihoodResult{}, err
	}

	return likelihoodResult{
		property:   property,
		number:     strings.ReplaceAll(strings.TrimSpace(number), ",", ""),
		moreOrLess: strings.TrimSpace(moreOrLess),
	}, nil
}

type cityCount struct {
	key   string
	count string
}

// defaultCities are the comparison agencies the site reports on.
var defaultCities = []string{"los_angeles", "new_york_city", "chicago"}

// flaggedOfficers reads how many officers would be flagged by the early
// warning systems of three large agencies. The block holds exactly six
// elements: city, count, city, count, city, count.
func flaggedOfficers(doc *goquery.Selection) ([]cityCount, error) {
	block, err := find(doc, ".earlywarning")
	if err != nil {
		return nil, err
	}

	elements := block.Find(".important_num_red2")
	if elements.Length() != 6 {
		return nil, fmt.Errorf("early warning block has %d values, want 6", elements.Length())
	}

	counts := make([]cityCount, 0, 3)
	for i := 0; i < 6; i += 2 {
		city, err := innerHTML(elements.Eq(i))
		if err != nil {
			return nil, err
		}
		n, err := innerHTML(elements.Eq(i + 1))
		if err != nil {
			return nil, err
		}
		counts = append(counts, cityCount{
			key:   cityKey(strings.TrimSpace(city)),
			count: strings.TrimSpace(n),
		})
	}
	return counts, nil
}

// averageOfficers returns the value part of "Average full-time officers: 12".
func averageOfficers(doc *goquery.Selection) (string, error) {
	label, err := findHTML(doc, ".pd_info", ".town_description", ".right", ".town_label")
	if err != nil {
		return "", err
	}
	parts := strings.Split(label, ": ")
	return strings.TrimSpace(parts[len(parts)-1]), nil
}

var rateMarkup = strings.NewReplacer(`<div class="important_num2">`, "", "</div>", "")

// rateOfForce returns the five-year ranking sentence with its highlight
// markup removed.
func rateOfForce(doc *goquery.Selection) (string, error) {
	sentence, err := findHTML(doc, "#rank_five_years", ".third_label")
	if err != nil {
		return "", err
	}
	return rateMarkup.Replace(collapseWhitespace(sentence)), nil
}

type pdInfoResult struct {
	townName   string
	county     string
	patrolArea string
}

func pdInfo(doc *goquery.Selection) (pdInfoResult, error) {
	info, err := find(doc, ".pd_info")
	if err != nil {
		return pdInfoResult{}, err
	}
	town, err := findHTML(info, ".biggest_hed")
	if err != nil {
		return pdInfoResult{}, err
	}
	county, err := findHTML(info, ".second_label")
	if err != nil {
		return pdInfoResult{}, err
	}
	area, err := findHTML(info, ".town_description", ".left", ".town_label")
	if err != nil {
		return pdInfoResult{}, err
	}
	return pdInfoResult{
		townName:   strings.TrimSpace(town),
		county:     strings.TrimSpace(county),
		patrolArea: strings.TrimSpace(area),
	}, nil
}

// Extract fills rec with every field group found in doc. Groups that fail are
// set to department.NotFound; Extract itself never fails.
func Extract(doc *goquery.Selection, rec *department.Record) {
	name := rec.Value("name")
	miss := func(group string, err error, keys ...string) {
		for _, k := range keys {
			rec.Set(k, department.NotFound)
		}
		logger.IncrCounter("fields.not_found")
		logger.Debug("Field group not found", logger.Fields{
			"department": name,
			"group":      group,
			"error":      err.Error(),
		})
	}

	sides := []struct {
		side, fallback, moreOrLessKey string
	}{
		{"left", "population", "more_or_less_pop"},
		{"right", "arrests", "more_or_less_arrests"},
	}
	for _, s := range sides {
		res, err := likelihood(doc, s.side)
		if err != nil {
			miss("likelihood_"+s.fallback, err, s.fallback, s.moreOrLessKey)
			continue
		}
		rec.Set(res.property, res.number)
		if strings.Contains(res.moreOrLess, "likely") {
			rec.Set(s.moreOrLessKey, res.moreOrLess)
		} else {
			rec.Set(s.moreOrLessKey, department.NotFound)
		}
	}

	if counts, err := flaggedOfficers(doc); err != nil {
		miss("flagged_officers", err, defaultCities...)
	} else {
		for _, c := range counts {
			rec.Set(c.key, c.count)
		}
	}

	if avg, err := averageOfficers(doc); err != nil {
		miss("average_full_time_officers", err, "average_full_time_officers")
	} else {
		rec.Set("average_full_time_officers", avg)
	}

	if rate, err := rateOfForce(doc); err != nil {
		miss("rate_of_force", err, "rate_of_force")
	} else {
		rec.Set("rate_of_force", rate)
	}

	if info, err := pdInfo(doc); err != nil {
		miss("pd_info", err, "town_name", "county", "patrol_area")
	} else {
		rec.Set("town_name", info.townName)
		rec.Set("county", info.county)
		rec.Set("patrol_area", info.patrolArea)
	}
}
