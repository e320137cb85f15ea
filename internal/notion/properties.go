package notion

import (
	"encoding/json"
	"strings"
	"unicode/utf16"
)

// maxTextLen is Notion's limit on the content of one text object, counted
// in UTF-16 code units.
const maxTextLen = 2000

// Filter is a database query filter object.
type Filter map[string]any

// Properties maps property names to property values for page creation.
type Properties map[string]any

// TitleEquals matches pages whose title property equals value exactly.
func TitleEquals(property, value string) Filter {
	return Filter{"property": property, "title": map[string]any{"equals": value}}
}

// RelationContains matches pages whose relation property contains pageID.
func RelationContains(property, pageID string) Filter {
	return Filter{"property": property, "relation": map[string]any{"contains": pageID}}
}

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Text textContent `json:"text"`
}

type pageRef struct {
	ID string `json:"id"`
}

// Title builds a title property value.
func Title(s string) any {
	return map[string]any{"title": segments(s)}
}

// RichText builds a rich_text property value.
func RichText(s string) any {
	return map[string]any{"rich_text": segments(s)}
}

// Select builds a select property value. An empty name clears the select.
func Select(name string) any {
	if name == "" {
		return map[string]any{"select": nil}
	}
	return map[string]any{"select": map[string]string{"name": name}}
}

// Relation builds a relation property value.
func Relation(ids ...string) any {
	refs := make([]pageRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, pageRef{ID: id})
	}
	return map[string]any{"relation": refs}
}

// Date builds a date property value; start is sent verbatim.
func Date(start string) any {
	return map[string]any{"date": map[string]string{"start": start}}
}

// segments splits s into text objects no longer than maxTextLen so that
// their concatenation is exactly s.
func segments(s string) []richText {
	out := []richText{}
	if s == "" {
		return out
	}
	var b strings.Builder
	units := 0
	for _, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > maxTextLen {
			out = append(out, richText{Text: textContent{Content: b.String()}})
			b.Reset()
			units = 0
		}
		b.WriteRune(r)
		units += n
	}
	if b.Len() > 0 {
		out = append(out, richText{Text: textContent{Content: b.String()}})
	}
	return out
}

// PlainText returns the text of a title or rich_text property, the name of
// a select, the start of a date, or the comma-joined ids of a relation.
// Missing properties yield "".
func (p Page) PlainText(property string) string {
	raw, ok := p.Properties[property]
	if !ok {
		return ""
	}
	var v struct {
		Title    []richTextOut `json:"title"`
		RichText []richTextOut `json:"rich_text"`
		Select   *struct {
			Name string `json:"name"`
		} `json:"select"`
		Date *struct {
			Start string `json:"start"`
		} `json:"date"`
		Relation []pageRef `json:"relation"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch {
	case v.Title != nil:
		return joinText(v.Title)
	case v.RichText != nil:
		return joinText(v.RichText)
	case v.Select != nil:
		return v.Select.Name
	case v.Date != nil:
		return v.Date.Start
	case v.Relation != nil:
		ids := make([]string, 0, len(v.Relation))
		for _, r := range v.Relation {
			ids = append(ids, r.ID)
		}
		return strings.Join(ids, ",")
	}
	return ""
}

// richTextOut is a text object as returned by the API, which adds
// plain_text next to the content we sent.
type richTextOut struct {
	PlainText string       `json:"plain_text"`
	Text      *textContent `json:"text"`
}

func joinText(parts []richTextOut) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case p.PlainText != "":
			b.WriteString(p.PlainText)
		case p.Text != nil:
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}
