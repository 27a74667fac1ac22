package fetcher

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const minBlockChars = 20

// extractHTML keeps the title, h1-h4 headings and paragraph or list item
// text longer than minBlockChars, in document order.
func extractHTML(body []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var title string
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
				return
			case atom.Title:
				if title == "" {
					title = collapse(nodeText(n))
				}
				return
			case atom.H1, atom.H2, atom.H3, atom.H4:
				if text := collapse(nodeText(n)); text != "" {
					parts = append(parts, text)
				}
				return
			case atom.P, atom.Li:
				if text := collapse(nodeText(n)); utf8.RuneCountInString(text) > minBlockChars {
					parts = append(parts, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if title == "" {
		title = untitledWebpage
	}
	return &Document{
		Text:     strings.Join(parts, "\n\n"),
		Metadata: Metadata{Title: title},
	}, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractPDF(body []byte) (doc *Document, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}

	var parts []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			parts = append(parts, pageText)
		}
	}

	title := strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
	if title == "" {
		title = untitledPDF
	}
	return &Document{
		Text:     strings.Join(parts, "\n\n"),
		Metadata: Metadata{Title: title, Pages: numPages},
	}, nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

func extractDOCX(body []byte) (*Document, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	paragraphs := docxParagraphs(r.Editable().GetContent())

	title := untitledDocument
	if len(paragraphs) > 0 {
		title = truncateRunes(paragraphs[0], 120)
	}
	return &Document{
		Text:     strings.Join(paragraphs, "\n\n"),
		Metadata: Metadata{Title: title},
	}, nil
}

// docxParagraphs turns WordprocessingML into one string per non-empty paragraph.
func docxParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", " ")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var paragraphs []string
	for _, line := range strings.Split(content, "\n") {
		if line = collapse(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
