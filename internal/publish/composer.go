package publish

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Month names the site renders titles in. Titles are Spanish throughout
// the product.
var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var titleCaser = cases.Title(language.Spanish)

// ComposeTitle renders the post title from the category name and the
// calendar date: "Cardio - 3 de Marzo 2026".
func ComposeTitle(categoryName string, now time.Time) string {
	month := titleCaser.String(spanishMonths[int(now.Month())-1])
	return fmt.Sprintf("%s - %d de %s %d", categoryName, now.Day(), month, now.Year())
}

// ComposeContent builds the post body: the video's embeddable markup in a
// container div, followed by the description. The embed markup is parsed
// and reduced to its iframe so stray wrapper tags from the video host do
// not leak into the post; unparseable markup is passed through untouched.
func ComposeContent(embedHTML, description string) string {
	embed := extractEmbed(embedHTML)

	var sb strings.Builder
	sb.WriteString(`<div class="video-container">` + "\n")
	sb.WriteString(embed)
	sb.WriteString("\n</div>\n")
	sb.WriteString("<p>" + strings.TrimSpace(description) + "</p>")
	return sb.String()
}

func extractEmbed(embedHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(embedHTML))
	if err != nil {
		return embedHTML
	}
	iframe := doc.Find("iframe").First()
	if iframe.Length() == 0 {
		return embedHTML
	}
	html, err := goquery.OuterHtml(iframe)
	if err != nil {
		return embedHTML
	}
	return html
}
