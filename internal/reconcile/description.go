package reconcile

import (
	"html"
	"strings"

	"github.com/bibhubhatta/wecare/internal/catalog"
)

// DetailedDescription renders a product as the html shown on the pantry
// item page. Every catalog string is escaped.
func DetailedDescription(p catalog.Product) string {
	var b strings.Builder

	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(p.Name))
	b.WriteString("</h1>")

	description := strings.TrimSpace(p.Description)
	if description != "" && !strings.EqualFold(description, strings.TrimSpace(p.Name)) {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(description), "\n", "<br>"))
		b.WriteString("</p>")
	}

	if len(p.Ingredients) > 0 {
		b.WriteString("<h2>Ingredients</h2><ul>")
		for _, ingredient := range p.Ingredients {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(ingredient))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}

	if len(p.Nutrition) > 0 {
		b.WriteString("<h2>Nutrition Profile</h2><table border='1'>")
		b.WriteString("<tr><th>Nutrient</th><th>Amount per Serving</th><th>% Daily Value</th></tr>")
		for _, n := range p.Nutrition {
			b.WriteString("<tr><td>")
			b.WriteString(html.EscapeString(n.Name))
			b.WriteString("</td><td>")
			b.WriteString(html.EscapeString(n.Size + " " + n.Unit + " (" + n.Abbreviation + ")"))
			b.WriteString("</td><td>")
			if n.PercentDailyValue != nil {
				b.WriteString(html.EscapeString(*n.PercentDailyValue) + "%")
			} else {
				b.WriteString("N/A")
			}
			b.WriteString("</td></tr>")
		}
		b.WriteString("</table>")
	}

	return b.String()
}
