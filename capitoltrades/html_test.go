package capitoltrades

import (
	"fmt"
	"strings"
	"testing"
)

// htmlRow renders a listing row the way the site does.
func htmlRow(name, issuer, ticker, day, year string) string {
	return fmt.Sprintf(`<tr>
<td><div><h2><a href="/politicians/x">%s</a></h2><div><span>Democrat</span> <span>House</span> <span>CA</span></div></div></td>
<td><div><h3><a href="/issuers/y">%s</a></h3><span>%s</span></div></td>
<td><div>Yesterday</div></td>
<td><div>%s</div><div>%s</div></td>
<td><span>days</span> <span>12</span></td>
<td><span>Spouse</span></td>
<td><span>buy</span></td>
<td><span>100K–250K</span></td>
<td><span>$34.10</span></td>
</tr>`, name, issuer, ticker, day, year)
}

func htmlPage(consent bool, rows ...string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><style>td{}</style></head><body>")
	if consent {
		sb.WriteString(`<div class="banner"><button>Reject</button><button> Accept All </button></div>`)
	}
	sb.WriteString("<table><thead><tr><th>Politician</th><th>Issuer</th></tr></thead><tbody>")
	for _, r := range rows {
		sb.WriteString(r)
	}
	sb.WriteString("</tbody></table></body></html>")
	return sb.String()
}

func TestParsePage(t *testing.T) {
	doc := htmlPage(true,
		htmlRow("Jane Doe", "Huntington Bancshares Inc", "HBAN:US", "20 Nov", "2025"),
		htmlRow("John Roe", "Some Corp", "", "3 Sept", "2025"),
	)
	p, err := parsePage(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parsePage() error = %v", err)
	}
	if !p.consent {
		t.Errorf("parsePage().consent = false, want true")
	}
	if len(p.rows) != 2 {
		t.Fatalf("parsePage() = %d rows, want 2 (header excluded)", len(p.rows))
	}
	first := p.rows[0]
	if len(first) != 9 {
		t.Fatalf("row has %d cells, want 9", len(first))
	}
	tests := []struct {
		cell int
		want string
	}{
		{0, "Jane Doe\nDemocrat House CA"},
		{1, "Huntington Bancshares Inc\nHBAN:US"},
		{3, "20 Nov\n2025"},
		{7, "100K–250K"},
	}
	for _, tt := range tests {
		if got := first[tt.cell]; got != tt.want {
			t.Errorf("cell %d = %q, want %q", tt.cell, got, tt.want)
		}
	}
	if got := p.rows[1][1]; got != "Some Corp" {
		t.Errorf("cell 1 = %q, want %q", got, "Some Corp")
	}
}

func TestParsePageEmpty(t *testing.T) {
	p, err := parsePage(strings.NewReader(htmlPage(false)))
	if err != nil {
		t.Fatalf("parsePage() error = %v", err)
	}
	if len(p.rows) != 0 || p.consent {
		t.Errorf("parsePage() = %+v, want no rows and no banner", p)
	}
}

func TestInnerText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<td>  a   b </td>`, "a b"},
		{`<td>a<br>b</td>`, "a\nb"},
		{`<td><p>a</p><p></p><p>b</p></td>`, "a\nb"},
		{`<td><span>a</span><span>b</span></td>`, "ab"},
		{`<td>a<script>var x</script></td>`, "a"},
	}
	for _, tt := range tests {
		p, err := parsePage(strings.NewReader("<table><tbody><tr>" + tt.in + "</tr></tbody></table>"))
		if err != nil || len(p.rows) != 1 || len(p.rows[0]) != 1 {
			t.Fatalf("parsePage(%q) = %+v, %v", tt.in, p, err)
		}
		if got := p.rows[0][0]; got != tt.want {
			t.Errorf("innerText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
