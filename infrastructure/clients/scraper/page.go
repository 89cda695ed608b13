package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is the part of a watch page the extraction rules look at.
type Page struct {
	Raw   []byte
	Title string
	// Meta holds meta content keyed by lower-cased property or name.
	Meta map[string]string
	// ItemProps holds meta content keyed by lower-cased itemprop.
	ItemProps map[string]string
}

// ParsePage tokenizes body and collects the title and meta tags. The first
// occurrence of a key wins.
func ParsePage(body []byte) *Page {
	page := &Page{
		Raw:       body,
		Meta:      map[string]string{},
		ItemProps: map[string]string{},
	}

	z := html.NewTokenizer(bytes.NewReader(body))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return page
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title:
				inTitle = page.Title == ""
			case atom.Meta:
				if hasAttr {
					page.addMeta(z)
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Title {
				inTitle = false
			}
		case html.TextToken:
			if inTitle {
				page.Title += string(z.Text())
			}
		}
	}
}

func (p *Page) addMeta(z *html.Tokenizer) {
	var property, itemprop, content string
	hasContent := false
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "property", "name":
			if property == "" {
				property = strings.ToLower(strings.TrimSpace(string(val)))
			}
		case "itemprop":
			itemprop = strings.ToLower(strings.TrimSpace(string(val)))
		case "content":
			content = strings.TrimSpace(string(val))
			hasContent = true
		}
		if !more {
			break
		}
	}
	if !hasContent {
		return
	}
	if property != "" {
		if _, ok := p.Meta[property]; !ok {
			p.Meta[property] = content
		}
	}
	if itemprop != "" {
		if _, ok := p.ItemProps[itemprop]; !ok {
			p.ItemProps[itemprop] = content
		}
	}
}
