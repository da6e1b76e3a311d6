package processors

import (
	"fmt"
	"html"
	"strings"
	"text/tabwriter"

	"github.com/username/easysplit/backend/src/models"
)

// RenderReportText renders the debt matrix plus transfer lines for
// terminals and the plain-text email body. The diagonal shows "-" and all
// amounts are printed with two decimals.
func RenderReportText(report models.SettlementReport) string {
	if report.NoData {
		return "No valid expense data to settle.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Settlement in %s\n\n", report.BaseCurrency)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "debtor \\ creditor")
	for _, name := range report.Participants {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)
	for i, debtor := range report.Participants {
		fmt.Fprint(w, debtor)
		for j := range report.Participants {
			if i == j {
				fmt.Fprint(w, "\t-")
			} else {
				fmt.Fprintf(w, "\t%.2f", report.Matrix[i][j])
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	b.WriteString("\n")
	if len(report.Transfers) == 0 {
		b.WriteString("All settled, no transfers needed.\n")
	} else {
		b.WriteString("Transfers:\n")
		for _, t := range report.Transfers {
			fmt.Fprintf(&b, "  %s -> %s: %.2f %s\n", t.From, t.To, t.Amount, report.BaseCurrency)
		}
	}
	if report.SkippedEntries > 0 {
		fmt.Fprintf(&b, "\n%d invalid entries were skipped.\n", report.SkippedEntries)
	}
	return b.String()
}

// RenderReportHTML renders the same content as an HTML fragment for email
// delivery. Participant names are escaped.
func RenderReportHTML(report models.SettlementReport) string {
	if report.NoData {
		return "<p>No valid expense data to settle.</p>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Settlement in %s</h2>", html.EscapeString(report.BaseCurrency))

	b.WriteString(`<table border="1" cellpadding="4" cellspacing="0"><tr><th>debtor \ creditor</th>`)
	for _, name := range report.Participants {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(name))
	}
	b.WriteString("</tr>")
	for i, debtor := range report.Participants {
		fmt.Fprintf(&b, "<tr><th>%s</th>", html.EscapeString(debtor))
		for j := range report.Participants {
			if i == j {
				b.WriteString("<td>-</td>")
			} else {
				fmt.Fprintf(&b, "<td>%.2f</td>", report.Matrix[i][j])
			}
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	if len(report.Transfers) == 0 {
		b.WriteString("<p>All settled, no transfers needed.</p>")
	} else {
		b.WriteString("<h3>Transfers</h3><ul>")
		for _, t := range report.Transfers {
			fmt.Fprintf(&b, "<li>%s &rarr; %s: %.2f %s</li>",
				html.EscapeString(t.From), html.EscapeString(t.To), t.Amount, html.EscapeString(report.BaseCurrency))
		}
		b.WriteString("</ul>")
	}
	if report.SkippedEntries > 0 {
		fmt.Fprintf(&b, "<p>%d invalid entries were skipped.</p>", report.SkippedEntries)
	}
	return b.String()
}
