package mn

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/sig-0/mnrates/provider/currencies"
	"github.com/sig-0/mnrates/provider/numeric"
	"github.com/sig-0/mnrates/storage/types"
	"github.com/sig-0/mnrates/transport"
)

var blockCodeRegex = regexp.MustCompile(`^[A-Z]{3}`)

// rateLabel binds a label fragment to the rate it introduces.
// Labels are matched as substrings, the first match of a line wins
type rateLabel struct {
	set  func(q *types.CurrencyQuote, v string)
	text string
}

var niBankLabels = []rateLabel{
	{
		text: "Бэлэн бус авах",
		set: func(q *types.CurrencyQuote, v string) {
			q.Noncash.Buy = numeric.ParseString(v)
		},
	},
	{
		text: "Бэлэн бус за",
		set: func(q *types.CurrencyQuote, v string) {
			q.Noncash.Sell = numeric.ParseString(v)
		},
	},
	{
		text: "Бэлэн авах",
		set: func(q *types.CurrencyQuote, v string) {
			q.Cash.Buy = numeric.ParseString(v)
		},
	},
	{
		text: "Бэлэн зарах",
		set: func(q *types.CurrencyQuote, v string) {
			q.Cash.Sell = numeric.ParseString(v)
		},
	},
}

// labelMapping locates quotes in card blocks where each value
// follows its label on the next line
type labelMapping struct {
	labels   []rateLabel
	block    string
	minLines int
}

func (m labelMapping) parse(doc *goquery.Document) types.Quotes {
	set := currencies.NewSet()

	doc.Find(m.block).Each(func(_ int, block *goquery.Selection) {
		lines := textLines(block)
		if len(lines) < m.minLines {
			return
		}

		var code string

		for _, line := range lines {
			if match := blockCodeRegex.FindString(line); match != "" {
				code = match

				break
			}
		}

		if code == "" {
			return
		}

		var quote types.CurrencyQuote

		for i := 0; i < len(lines)-1; i++ {
			for _, label := range m.labels {
				if strings.Contains(lines[i], label.text) {
					label.set(&quote, lines[i+1])

					break
				}
			}
		}

		set.Add(code, quote)
	})

	return set.Quotes()
}

// textLines returns the trimmed, NFC-normalized text of every leaf element
// in document order, approximating the rendered lines of the block
func textLines(sel *goquery.Selection) []string {
	var lines []string

	sel.Find("*").Each(func(_ int, el *goquery.Selection) {
		if el.Children().Length() > 0 {
			return
		}

		if line := norm.NFC.String(strings.TrimSpace(el.Text())); line != "" {
			lines = append(lines, line)
		}
	})

	return lines
}

// labelSource is a rendered-transport source publishing label blocks
type labelSource struct {
	renderer Renderer
	url      string
	mapping  labelMapping
}

func (s *labelSource) crawl(ctx context.Context, _ string) (types.Quotes, error) {
	page, err := s.renderer.Render(ctx, &transport.RenderRequest{
		URL: s.url,
	})
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(page.HTML)
	if err != nil {
		return nil, err
	}

	return s.mapping.parse(doc), nil
}
