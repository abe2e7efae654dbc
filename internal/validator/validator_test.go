package validator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/editconfig"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data
}

func testConfig(t *testing.T) []byte {
	t.Helper()
	return readTestdata(t, "45072_Zooscan.json")
}

func okCard(t *testing.T) string {
	t.Helper()
	return string(readTestdata(t, "ok_example.html"))
}

// mutate replaces the first occurrence of old and fails when it is absent.
func mutate(t *testing.T, doc, old, replacement string) string {
	t.Helper()
	if !strings.Contains(doc, old) {
		t.Fatalf("fixture does not contain %q", old)
	}
	return strings.Replace(doc, old, replacement, 1)
}

func kinds(r Result) []Kind {
	out := make([]Kind, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Kind)
	}
	return out
}

func TestOkExampleAccepted(t *testing.T) {
	got := ValidateBytes(testConfig(t), []byte(okCard(t)))
	want := Result{Accepted: true, Violations: []Violation{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ok_example mismatch (-want +got):\n%s", diff)
	}
}

func TestKoExampleViolations(t *testing.T) {
	const shapes = "/html/body/div.descriptive-schemas/div/svg/g.shapes/"
	want := []Violation{
		{Kind: UnknownLabelReference, Location: "/html/body/svg.svg-templates/defs/marker#wing_triangle", Value: "wing"},
		{Kind: UnknownLabelReference, Location: shapes + "line#l1", Value: "leg"},
		{Kind: DisallowedSvgConstruct, Location: shapes + "line#l3", Value: "rotate(45 5 0)"},
		{Kind: LabelColorMismatch, Location: shapes + "line#l3", Value: "green"},
		{Kind: DisallowedSvgConstruct, Location: shapes + "polygon#p1", Value: "polygon"},
		{Kind: DisallowedSvgConstruct, Location: shapes + "path#s1", Value: "l 10 10"},
		{Kind: DisallowedSvgConstruct, Location: shapes + "path#s1", Value: "M 0,0 l 10,10"},
		{Kind: UnknownSegmentReference, Location: shapes + "use#u1", Value: "fin"},
	}

	got := ValidateBytes(testConfig(t), readTestdata(t, "ko_example.html"))
	if got.Accepted {
		t.Fatal("ko_example should be rejected")
	}
	if diff := cmp.Diff(want, got.Violations, cmpopts.IgnoreFields(Violation{}, "Message")); diff != "" {
		t.Errorf("ko_example violations mismatch (-want +got):\n%s", diff)
	}
	for _, v := range got.Violations {
		if v.Message == "" {
			t.Errorf("violation %v has no message", v)
		}
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	ko := readTestdata(t, "ko_example.html")
	first := ValidateBytes(cfg, ko)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, ValidateBytes(cfg, ko)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestValidateConcurrentUse(t *testing.T) {
	snap, err := editconfig.ParseSnapshot(testConfig(t))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	doc, err := card.Parse(readTestdata(t, "ko_example.html"))
	if err != nil {
		t.Fatalf("card.Parse() error = %v", err)
	}
	want := Validate(snap, doc)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Validate(snap, doc)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("goroutine %d differs (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnknownLabelReportedOncePerName(t *testing.T) {
	doc := okCard(t)
	doc = mutate(t, doc, `<line id="arrow1" data-label="antenna"`, `<line id="arrow1" data-label="leg"`)
	doc = mutate(t, doc, `<circle id="circle1" data-label="head"`, `<circle id="circle1" data-label="leg"`)
	doc = mutate(t, doc, `<line id="arrow2" data-label="head"`, `<line id="arrow2" data-label="fin"`)

	got := ValidateBytes(testConfig(t), []byte(doc))
	if got.Accepted {
		t.Fatal("card with unknown labels should be rejected")
	}
	var names []string
	for _, v := range got.Violations {
		if v.Kind == UnknownLabelReference {
			names = append(names, v.Value)
		}
	}
	if diff := cmp.Diff([]string{"leg", "fin"}, names); diff != "" {
		t.Errorf("unknown labels mismatch (-want +got):\n%s", diff)
	}
}

func TestRotateOnArrowRejected(t *testing.T) {
	doc := mutate(t, okCard(t), `<line id="arrow1"`, `<line id="arrow1" transform="rotate(30 10 20)"`)
	got := ValidateBytes(testConfig(t), []byte(doc))
	if got.Accepted {
		t.Fatal("rotated arrow should be rejected")
	}
	if diff := cmp.Diff([]Kind{DisallowedSvgConstruct}, kinds(got)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got.Violations[0].Value != "rotate(30 10 20)" {
		t.Errorf("Value = %q, want the transform", got.Violations[0].Value)
	}
}

func TestTaxoIDSwapGivesIdentifierMismatch(t *testing.T) {
	doc := mutate(t, okCard(t), `data-taxoid="45072"`, `data-taxoid="45073"`)
	got := ValidateBytes(testConfig(t), []byte(doc))
	if got.Accepted {
		t.Fatal("card for another taxon should be rejected")
	}
	if got.Count(IdentifierMismatch) != 1 {
		t.Errorf("IdentifierMismatch count = %d, want 1: %v", got.Count(IdentifierMismatch), got.Violations)
	}

	// Other problems do not hide the mismatch.
	doc = mutate(t, readAsString(t, "ko_example.html"), `data-taxoid="45072"`, `data-taxoid="1"`)
	got = ValidateBytes(testConfig(t), []byte(doc))
	if got.Count(IdentifierMismatch) != 1 {
		t.Errorf("IdentifierMismatch count on ko card = %d, want 1", got.Count(IdentifierMismatch))
	}
}

func readAsString(t *testing.T, name string) string {
	t.Helper()
	return string(readTestdata(t, name))
}

func TestMalformedInput(t *testing.T) {
	cfg := testConfig(t)
	ok := []byte(okCard(t))
	tests := []struct {
		name     string
		config   []byte
		card     []byte
		location string
	}{
		{"unclosed element", cfg, []byte(`<html><body><article class="morpho-criteria"><p>x</article></body></html>`), "card"},
		{"truncated card", cfg, ok[:len(ok)/2], "card"},
		{"stray end tag", cfg, []byte(`<html><body></div></body></html>`), "card"},
		{"config not json", []byte(`{"taxoid": 45072,`), ok, "config"},
		{"config schema", []byte(`{"taxoid": "45072", "instrumentid": "Zooscan", "labels": {}, "segments": []}`), ok, "config"},
		{"config bad color", []byte(`{"taxoid": 45072, "instrumentid": "Zooscan", "labels": {"antenna": "reddish"}, "segments": []}`), ok, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateBytes(tt.config, tt.card)
			if got.Accepted {
				t.Fatal("malformed input must be rejected")
			}
			if diff := cmp.Diff([]Kind{MalformedInput}, kinds(got)); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
			if got.Violations[0].Location != tt.location {
				t.Errorf("Location = %q, want %q", got.Violations[0].Location, tt.location)
			}
		})
	}
}

func TestValidateZeroInputs(t *testing.T) {
	doc, err := card.Parse([]byte(okCard(t)))
	if err != nil {
		t.Fatalf("card.Parse() error = %v", err)
	}
	if got := Validate(editconfig.Snapshot{}, doc); got.Count(MalformedInput) != 1 {
		t.Errorf("zero snapshot: got %v", got.Violations)
	}
	snap, err := editconfig.ParseSnapshot(testConfig(t))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	if got := Validate(snap, nil); got.Count(MalformedInput) != 1 {
		t.Errorf("nil card: got %v", got.Violations)
	}
}

func TestCardRules(t *testing.T) {
	tests := []struct {
		name      string
		old, repl string
		want      []Kind
	}{
		{
			name: "criteria block missing",
			old:  `<article class="morpho-criteria">`, repl: `<article class="criteria">`,
			want: []Kind{StructuralViolation, StructuralViolation},
		},
		{
			name: "empty list item",
			old:  `<li>Telson <em>forked</em></li>`, repl: `<li> </li>`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "link inside criteria",
			old:  `<li>Telson <em>forked</em></li>`, repl: `<li>Telson <a href="x">forked</a></li>`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "emoji in criteria",
			old:  `first antenna.`, repl: "first antenna \U0001F990.",
			want: []Kind{StructuralViolation},
		},
		{
			name: "non data attribute on body",
			old:  `data-author="ecotaxa"`, repl: `class="card"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "instrument mismatch",
			old:  `data-instrumentid="Zooscan"`, repl: `data-instrumentid="UVP5"`,
			want: []Kind{IdentifierMismatch},
		},
		{
			name: "stroke color mismatch",
			old:  `stroke="blue" fill="none"`, repl: `stroke="red" fill="none"`,
			want: []Kind{LabelColorMismatch},
		},
		{
			name: "arrow head of another label",
			old:  `marker-end="url(#antenna_triangle)"`, repl: `marker-end="url(#head_triangle)"`,
			want: []Kind{LabelColorMismatch},
		},
		{
			name: "undefined arrow head",
			old:  `stroke="rgb(0,128,0)" fill="none"`, repl: `stroke="rgb(0,128,0)" fill="none" marker-end="url(#telson_triangle)"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "arrow head fill mismatch",
			old:  `fill="blue"/>`, repl: `fill="red"/>`,
			want: []Kind{LabelColorMismatch},
		},
		{
			name: "unknown label in marker",
			old:  `<marker id="head_triangle"`, repl: `<marker id="fin_triangle"`,
			want: []Kind{UnknownLabelReference, StructuralViolation},
		},
		{
			name: "script in segment drawing",
			old:  `<title>antenna</title>`, repl: `<title>antenna</title><script>alert(1)</script>`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "unknown segment",
			old:  `xlink:href="#antenna_segment"`, repl: `xlink:href="#fin_segment"`,
			want: []Kind{UnknownSegmentReference},
		},
		{
			name: "undefined segment symbol",
			old:  `xlink:href="#antenna_segment"`, repl: `xlink:href="#leg_segment"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "segment rotated by a free angle",
			old:  `rotate(45 70 70)`, repl: `rotate(30 70 70)`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "segment rotated off centre",
			old:  `rotate(45 70 70)`, repl: `rotate(45 0 0)`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "segment outside descriptive schemas",
			old:  `marker-start="url(#head_triangle)"/>`,
			repl: `marker-start="url(#head_triangle)"/><use id="seg2" href="#antenna_segment" x="0" y="0" width="10" height="10"/>`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "translated arrow",
			old:  `<line id="arrow1"`, repl: `<line id="arrow1" transform="translate(5 5)"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "style attribute",
			old:  `<circle id="circle1"`, repl: `<circle id="circle1" style="opacity:0.5"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "rect outside zooms",
			old:  `<circle id="circle1"`, repl: `<rect x="0" y="0" width="1" height="1"/><circle id="circle1"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "absolute curve in spline",
			old:  `c 10,-20`, repl: `C 10,-20`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "background image offset",
			old:  `5678.jpg" x="0"`, repl: `5678.jpg" x="5"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "background missing",
			old:  `class="background" id="bg2"`, repl: `class="bg" id="bg2"`,
			want: []Kind{StructuralViolation, DisallowedSvgConstruct},
		},
		{
			name: "duplicate id",
			old:  `id="circle1"`, repl: `id="arrow1"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "missing label",
			old:  `<circle id="circle1" data-label="head"`, repl: `<circle id="circle1"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "non numeric coordinate",
			old:  `cx="200"`, repl: `cx="abc"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "NaN coordinate",
			old:  `x1="10"`, repl: `x1="NaN"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "infinite coordinate",
			old:  `x1="300" y1="20"`, repl: `x1="300" y1="Inf"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "hex float coordinate",
			old:  `cx="200"`, repl: `cx="0x1p3"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "overflowing radius",
			old:  `r="30"`, repl: `r="1e999"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "NaN segment box",
			old:  `x="50" y="50" width="40"`, repl: `x="NaN" y="50" width="40"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "coordinate with unit",
			old:  `cy="150"`, repl: `cy="150px"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "diagonal arrow",
			old:  `x2="110" y2="20"`, repl: `x2="110" y2="80"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "diagonal arrow in confusion",
			old:  `x2="90" y2="50"`, repl: `x2="90" y2="60"`,
			want: []Kind{DisallowedSvgConstruct},
		},
		{
			name: "view name outside configuration",
			old:  `data-view-name="lateral"`, repl: `data-view-name="ventral"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "object id not an integer",
			old:  `data-object-id="123457"`, repl: `data-object-id="x"`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "confusion with itself",
			old:  `data-confusing-taxoid="45074"`, repl: `data-confusing-taxoid="45072"`,
			want: []Kind{IdentifierMismatch},
		},
		{
			name: "non http link",
			old:  `https://en.wikipedia.org`, repl: `ftp://en.wikipedia.org`,
			want: []Kind{StructuralViolation},
		},
		{
			name: "repeated section",
			old:  `<div class="possible-confusions">`,
			repl: `<div class="photos-and-figures"><a href="https://a.org">A</a></div><div class="possible-confusions">`,
			want: []Kind{StructuralViolation},
		},
	}
	cfg := testConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mutate(t, okCard(t), tt.old, tt.repl)
			got := ValidateBytes(cfg, []byte(doc))
			if got.Accepted {
				t.Fatal("card should be rejected")
			}
			if diff := cmp.Diff(tt.want, kinds(got)); diff != "" {
				t.Errorf("kinds mismatch (-want +got):\n%s\nviolations: %v", diff, got.Violations)
			}
		})
	}
}

func TestDuplicateViewName(t *testing.T) {
	doc := okCard(t)
	view := `<div data-view-name="dorsal" data-instance="ecotaxa" data-object-id="9">` +
		`<svg><g class="shapes"><svg class="background" id="bg9">` +
		`<image href="https://example.org/b.jpg" x="0" y="0" width="10" height="10"/>` +
		`</svg></g></svg></div>`
	doc = mutate(t, doc, `<div class="descriptive-schemas">`, `<div class="descriptive-schemas">`+view)
	got := ValidateBytes(testConfig(t), []byte(doc))
	if diff := cmp.Diff([]Kind{StructuralViolation}, kinds(got)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got.Violations[0].Value != "dorsal" {
		t.Errorf("Value = %q, want dorsal", got.Violations[0].Value)
	}
}

func TestViolationsFollowDocumentOrder(t *testing.T) {
	const (
		schemas = "/html/body/div.descriptive-schemas/"
		list    = "/html/body/article.morpho-criteria/ul/"
	)
	view := `<div data-view-name="dorsal" data-instance="ecotaxa" data-object-id="9">` +
		`<svg><g class="shapes"><svg class="background" id="bg9">` +
		`<image href="https://example.org/b.jpg" x="0" y="0" width="10" height="10"/>` +
		`</svg><polygon id="poly9" points="0,0 1,1 1,0"/></g></svg></div>`

	tests := []struct {
		name  string
		edits [][2]string
		want  []string
	}{
		{
			name: "duplicate view before its content",
			edits: [][2]string{{
				"    </div>\n  </div>\n  <div class=\"more-examples\">",
				"    </div>\n" + view + "\n  </div>\n  <div class=\"more-examples\">",
			}},
			want: []string{
				schemas + "div[2]",
				schemas + "div[2]/svg/g.shapes/polygon#poly9",
			},
		},
		{
			name: "stray text after earlier sections",
			edits: [][2]string{
				{`</article>`, `</article>stray`},
				{`<li>Telson <em>forked</em></li>`, `<li> </li>`},
			},
			want: []string{
				list + "li[2]",
				"/html/body/text()",
			},
		},
		{
			name: "text between shapes",
			edits: [][2]string{
				{`<circle id="circle1"`, `oops<circle id="circle1"`},
				{`stroke="blue" fill="none"/>`, `stroke="red" fill="none"/>`},
				{`<path id="spline1"`, `<rect x="0" y="0" width="1" height="1"/><path id="spline1"`},
			},
			want: []string{
				schemas + "div/svg/g.shapes/text()",
				schemas + "div/svg/g.shapes/circle#circle1",
				schemas + "div/svg/g.shapes/rect",
			},
		},
	}
	cfg := testConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := okCard(t)
			for _, e := range tt.edits {
				doc = mutate(t, doc, e[0], e[1])
			}
			got := ValidateBytes(cfg, []byte(doc))
			locations := make([]string, 0, len(got.Violations))
			for _, v := range got.Violations {
				locations = append(locations, v.Location)
			}
			if diff := cmp.Diff(tt.want, locations); diff != "" {
				t.Errorf("locations mismatch (-want +got):\n%s\nviolations: %v", diff, got.Violations)
			}
		})
	}
}

func TestSimplifiedConfigRejectsDrawings(t *testing.T) {
	cfg := mutate(t, string(testConfig(t)), `"views"`, `"simplified": true, "views"`)
	got := ValidateBytes([]byte(cfg), []byte(okCard(t)))
	want := []Kind{
		DisallowedSvgConstruct, DisallowedSvgConstruct, DisallowedSvgConstruct, DisallowedSvgConstruct,
		DisallowedSvgConstruct, DisallowedSvgConstruct,
	}
	if diff := cmp.Diff(want, kinds(got)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxSplineSegmentsOption(t *testing.T) {
	snap, err := editconfig.ParseSnapshot(testConfig(t))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	doc, err := card.Parse([]byte(okCard(t)))
	if err != nil {
		t.Fatalf("card.Parse() error = %v", err)
	}

	if got := Validate(snap, doc, WithMaxSplineSegments(1)); got.Count(DisallowedSvgConstruct) != 1 {
		t.Errorf("one segment allowed: got %v", got.Violations)
	}
	if got := Validate(snap, doc, WithMaxSplineSegments(0)); !got.Accepted {
		t.Errorf("zero keeps the default: got %v", got.Violations)
	}
}
