package portal

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// form is an HTML form ready to submit.
type form struct {
	action string
	method string
	values url.Values
}

// findForm locates the form matched by selector. The selector may match the
// form itself or any element inside it.
func findForm(doc *goquery.Document, selector string) *goquery.Selection {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return sel
	}
	if !sel.Is("form") {
		sel = sel.Closest("form")
	}
	return sel
}

// parseForm collects the form's inputs, keeping hidden tokens, and
// resolves its action against page.
func parseForm(sel *goquery.Selection, page *url.URL) (*form, error) {
	if sel.Length() == 0 {
		return nil, fmt.Errorf("form not found")
	}

	action, _ := sel.Attr("action")
	target, err := page.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("form action %q: %w", action, err)
	}

	method := strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", "POST")))

	values := url.Values{}
	sel.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
		}
		values.Set(name, in.AttrOr("value", ""))
	})

	return &form{action: target.String(), method: method, values: values}, nil
}
