package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode {
		switch node.Data {
		case "br", "p", "li", "tr", "h1", "h2", "h3":
			buffer.WriteByte('\n')
		case "td", "th":
			buffer.WriteByte(' ')
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[ \t]+`)
var blankLines = regexp.MustCompile(`\n\s*\n+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if c == '\n' || unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean removes non-printable characters and collapses runs of whitespace.
func Clean(text string) string {
	text = removeNonPrintable(text)
	text = innerWhitespace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// PlainText renders an html fragment as readable plain text.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, n := range doc.Find("body").Nodes {
		out.WriteString(GetText(n))
	}
	return Clean(out.String()), nil
}
