package prizes

import (
	"bytes"
	"paperscrape/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const categoryPrefix = "The Nobel Prize in "

const (
	openQuote  = "“"
	closeQuote = "”"
)

type Prize struct {
	Category   string
	Laureates  string
	Motivation string
}

// Parse returns one Prize per well formed `div.by_year` section, in document order.
// Sections missing the heading, the paragraph or the quoted motivation are skipped.
func Parse(body []byte) ([]Prize, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	var prizes []Prize
	doc.Find("div.by_year").Each(func(_ int, section *goquery.Selection) {
		prize, ok := parseSection(section)
		if !ok {
			return
		}
		prizes = append(prizes, prize)
	})
	return prizes, nil
}

func parseSection(section *goquery.Selection) (Prize, bool) {
	heading := section.Find("h3").First()
	paragraph := section.Find("p").First()
	if heading.Length() == 0 || paragraph.Length() == 0 {
		return Prize{}, false
	}

	title := htmlutil.CleanText(htmlutil.GetText(heading.Get(0)))
	text := htmlutil.CleanText(htmlutil.GetText(paragraph.Get(0)))

	parts := strings.Split(text, openQuote)
	if len(parts) < 2 {
		return Prize{}, false
	}

	return Prize{
		Category:   strings.TrimSpace(strings.Replace(title, categoryPrefix, "", 1)),
		Laureates:  strings.TrimSpace(parts[len(parts)-2]),
		Motivation: strings.TrimSpace(strings.ReplaceAll(parts[len(parts)-1], closeQuote, "")),
	}, true
}
