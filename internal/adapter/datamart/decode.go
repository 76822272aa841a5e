package datamart

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

// readRecords decodes a station CSV. Files are published as Latin-1; newer
// ones are UTF-8 with a byte order mark, which is detected and kept as is.
func readRecords(body []byte) ([][]string, error) {
	var src io.Reader = bytes.NewReader(body)
	if !utf8.Valid(body) {
		src = charmap.ISO8859_1.NewDecoder().Reader(src)
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// parseListing returns the href of every anchor in an HTML directory
// listing, in document order.
func parseListing(body []byte) ([]string, error) {
	z := html.NewTokenizer(bytes.NewReader(body))
	var links []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			return links, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if atom.Lookup(name) != atom.A || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if href := strings.TrimSpace(string(val)); href != "" {
						links = append(links, href)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
