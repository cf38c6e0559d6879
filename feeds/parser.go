package feeds

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"newsyacht/models"
)

// FormatError marks a document that could not be understood as an RSS or
// Atom feed. Unlike fetch failures it aborts a whole update batch.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// element is a minimal DOM node, just enough to walk a feed document.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*element
}

// Parse deserializes raw XML into a canonical Feed. The dialect is picked
// from the root element: <rss> documents take the RSS branch, any root whose
// local name ends in "feed" takes the Atom branch, and anything else is a
// FormatError.
func Parse(data []byte) (*models.Feed, error) {
	root, err := decode(data)
	if err != nil {
		return nil, &FormatError{Msg: "feed is not well-formed XML", Err: err}
	}
	if root == nil {
		return nil, &FormatError{Msg: "feed missing root tag"}
	}

	if root.name.Local == "rss" {
		return parseRSS(root)
	}
	if strings.HasSuffix(root.name.Local, "feed") {
		return parseAtom(root)
	}

	return nil, &FormatError{Msg: fmt.Sprintf("unexpected root tag: %s", root.name.Local)}
}

func decode(data []byte) (*element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var root *element
	var stack []*element

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			el := &element{name: tok.Name, attrs: tok.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(tok)
			}
		}
	}

	return root, nil
}

// childText returns the trimmed text of the first direct child with the
// given local name, or "" when no such child exists. Missing children are
// never an error.
func (e *element) childText(local string) string {
	for _, child := range e.children {
		if child.name.Local == local {
			return strings.TrimSpace(child.text)
		}
	}
	return ""
}

// suffixChild returns the first direct child whose local name ends in
// suffix, ignoring any namespace prefix. Atom documents are commonly
// namespaced, so exact tag matches are too strict there.
func (e *element) suffixChild(suffix string) *element {
	for _, child := range e.children {
		if strings.HasSuffix(child.name.Local, suffix) {
			return child
		}
	}
	return nil
}

func (e *element) suffixText(suffix string) string {
	if child := e.suffixChild(suffix); child != nil {
		return strings.TrimSpace(child.text)
	}
	return ""
}

func (e *element) attr(local string) string {
	for _, a := range e.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// descendants collects all elements below e with the given local name, in
// document order.
func (e *element) descendants(local string) []*element {
	var out []*element
	for _, child := range e.children {
		if child.name.Local == local {
			out = append(out, child)
		}
		out = append(out, child.descendants(local)...)
	}
	return out
}

func parseRSS(root *element) (*models.Feed, error) {
	channels := root.descendants("channel")
	if len(channels) != 1 {
		return nil, &FormatError{Msg: fmt.Sprintf("expected a single nested <channel>, found %d", len(channels))}
	}
	channel := channels[0]

	var items []models.Item
	for _, el := range channel.descendants("item") {
		// dc:creator parses with local name "creator"
		item, err := models.NewItem(
			el.childText("title"),
			el.childText("description"),
			el.childText("link"),
			el.childText("creator"),
			el.childText("comments"),
			el.childText("guid"),
			parseRFC2822(el.childText("pubDate")),
		)
		if err != nil {
			return nil, &FormatError{Msg: "invalid feed item", Err: err}
		}
		items = append(items, item)
	}

	return &models.Feed{
		Title:       channel.childText("title"),
		Link:        channel.childText("link"),
		Description: channel.childText("description"),
		Items:       items,
	}, nil
}

func parseAtom(root *element) (*models.Feed, error) {
	var items []models.Item
	for _, el := range root.children {
		if !strings.HasSuffix(el.name.Local, "entry") {
			continue
		}

		var link string
		if l := el.suffixChild("link"); l != nil {
			link = l.attr("href")
		}

		var author string
		if a := el.suffixChild("author"); a != nil {
			author = a.suffixText("name")
		}

		rawDate := el.suffixText("published")
		if rawDate == "" {
			rawDate = el.suffixText("updated")
		}

		item, err := models.NewItem(
			el.suffixText("title"),
			el.suffixText("content"),
			link,
			author,
			el.suffixText("comments"),
			el.suffixText("id"),
			parseRFC3339(rawDate),
		)
		if err != nil {
			return nil, &FormatError{Msg: "invalid feed entry", Err: err}
		}
		items = append(items, item)
	}

	var feedLink string
	if l := root.suffixChild("link"); l != nil {
		feedLink = l.attr("href")
	}

	return &models.Feed{
		Title:       root.suffixText("title"),
		Link:        feedLink,
		Description: root.suffixText("content"),
		Items:       items,
	}, nil
}

// parseRFC2822 parses an RSS pubDate. A date that does not parse is stored
// as nil rather than failing the item.
func parseRFC2822(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func parseRFC3339(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
