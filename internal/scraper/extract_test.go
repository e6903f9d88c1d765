package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/pfrederiksen/force-scraper/internal/department"
)

func parseFixture(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc.Selection
}

type field struct{ key, value string }

func recordFields(r *department.Record) []field {
	out := make([]field, 0, r.Len())
	for _, k := range r.Keys() {
		out = append(out, field{k, r.Value(k)})
	}
	return out
}

func TestExtract_FullPage(t *testing.T) {
	doc := parseFixture(t, loadFixture(t, "department.html"))
	rec := department.NewRecord(department.Department{Name: "Newark PD, Essex", RelativeURL: "/police/essex/newark/"})

	Extract(doc, rec)

	want := []field{
		{"name", "Newark PD, Essex"},
		{"relative_url", "/police/essex/newark/"},
		{"population", "3.1"},
		{"more_or_less_pop", "times more likely to use force against a Black person"},
		{"arrests", "1204"},
		{"more_or_less_arrests", "times less likely to use force per arrest"},
		{"los_angeles", "12"},
		{"new_york_city", "7"},
		{"chicago", "21"},
		{"average_full_time_officers", "1012"},
		{"rate_of_force", "This department uses force at a rate higher than 84% of departments in New Jersey"},
		{"town_name", "Newark"},
		{"county", "Essex County"},
		{"patrol_area", "Patrols 24.2 square miles"},
	}
	if diff := cmp.Diff(want, recordFields(rec), cmp.AllowUnexported(field{})); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
	if rec.CountNotFound() != 0 {
		t.Errorf("CountNotFound() = %d, want 0", rec.CountNotFound())
	}
}

func TestExtract_PartialPage(t *testing.T) {
	doc := parseFixture(t, loadFixture(t, "department_partial.html"))
	rec := department.NewRecord(department.Department{Name: "Tiny PD", RelativeURL: "/police/x/tiny/"})

	Extract(doc, rec)

	nf := department.NotFound
	want := []field{
		{"name", "Tiny PD"},
		{"relative_url", "/police/x/tiny/"},
		{"population", "12500"},
		{"more_or_less_pop", nf},
		{"arrests", nf},
		{"more_or_less_arrests", nf},
		{"los_angeles", nf},
		{"new_york_city", nf},
		{"chicago", nf},
		{"average_full_time_officers", nf},
		{"rate_of_force", nf},
		{"town_name", nf},
		{"county", nf},
		{"patrol_area", nf},
	}
	if diff := cmp.Diff(want, recordFields(rec), cmp.AllowUnexported(field{})); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyPage(t *testing.T) {
	rec := department.NewRecord(department.Department{Name: "Gone PD"})
	Extract(emptyDocument().Selection, rec)

	// every statistic column is present and set to the sentinel
	if got := rec.CountNotFound(); got != 12 {
		t.Errorf("CountNotFound() = %d, want 12 (keys %v)", got, rec.Keys())
	}
}

func TestLikelihood(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		side    string
		want    likelihoodResult
		wantErr bool
	}{
		{
			name: "label, number and sentence",
			html: `<div class="racial_breakdown"><div class="right">
				<div class="important_num2"> arrests </div>
				<div class="important_num1"> 2,345 </div>
				<div class="important_num2"> times more likely </div>
			</div></div>`,
			side: "right",
			want: likelihoodResult{property: "arrests", number: "2345", moreOrLess: "times more likely"},
		},
		{
			name: "single label is also the sentence",
			html: `<div class="racial_breakdown"><div class="left">
				<div class="important_num2">population</div>
				<div class="important_num1">5</div>
			</div></div>`,
			side: "left",
			want: likelihoodResult{property: "population", number: "5", moreOrLess: "population"},
		},
		{
			name:    "missing number",
			html:    `<div class="racial_breakdown"><div class="left"><div class="important_num2">population</div></div></div>`,
			side:    "left",
			wantErr: true,
		},
		{
			name:    "empty label",
			html:    `<div class="racial_breakdown"><div class="left"><div class="important_num2"> </div><div class="important_num1">1</div></div></div>`,
			side:    "left",
			wantErr: true,
		},
		{
			name:    "wrong side",
			html:    `<div class="racial_breakdown"><div class="left"></div></div>`,
			side:    "right",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := likelihood(parseFixture(t, tt.html), tt.side)
			if tt.wantErr {
				if err == nil {
					t.Errorf("likelihood() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("likelihood() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("likelihood() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFlaggedOfficers(t *testing.T) {
	six := `<div class="earlywarning">
		<b class="important_num_red2">Los Angeles's</b><b class="important_num_red2"> 3 </b>
		<b class="important_num_red2">New York City's</b><b class="important_num_red2">0</b>
		<b class="important_num_red2">Chicago'</b><b class="important_num_red2">9</b>
	</div>`

	got, err := flaggedOfficers(parseFixture(t, six))
	if err != nil {
		t.Fatalf("flaggedOfficers() error: %v", err)
	}
	want := []cityCount{{"los_angeles", "3"}, {"new_york_city", "0"}, {"chicago", "9"}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(cityCount{})); diff != "" {
		t.Errorf("flaggedOfficers() mismatch (-want +got):\n%s", diff)
	}

	seven := strings.Replace(six, "</div>", `<b class="important_num_red2">extra</b></div>`, 1)
	if _, err := flaggedOfficers(parseFixture(t, seven)); err == nil {
		t.Error("flaggedOfficers() with seven values expected error")
	}
}

func TestAverageOfficers(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Average full-time officers: 42", "42"},
		{"Officers: avg: 7", "7"},
		{"No separator", "No separator"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			html := `<div class="pd_info"><div class="town_description">
				<div class="left"><span class="town_label">left</span></div>
				<div class="right"><span class="town_label">` + tt.label + `</span></div>
			</div></div>`
			got, err := averageOfficers(parseFixture(t, html))
			if err != nil {
				t.Fatalf("averageOfficers() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("averageOfficers() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateOfForce(t *testing.T) {
	html := `<div id="rank_five_years"><h3 class="third_label">Uses force more than
		<span><div class="important_num2">12</div></span>
		other departments</h3></div>`

	got, err := rateOfForce(parseFixture(t, html))
	if err != nil {
		t.Fatalf("rateOfForce() error: %v", err)
	}
	want := "Uses force more than <span>12</span> other departments"
	if got != want {
		t.Errorf("rateOfForce() = %q, want %q", got, want)
	}

	if _, err := rateOfForce(parseFixture(t, `<div id="rank_five_years"></div>`)); err == nil {
		t.Error("rateOfForce() without label expected error")
	}
}

func TestPdInfo_AllOrNothing(t *testing.T) {
	html := `<div class="pd_info">
		<div class="biggest_hed">Absecon</div>
		<div class="second_label">Atlantic County</div>
	</div>`

	if got, err := pdInfo(parseFixture(t, html)); err == nil {
		t.Errorf("pdInfo() = %+v, want error when patrol area is missing", got)
	}
}
