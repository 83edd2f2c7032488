package domain

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// Bulletin is the parsed forecast document. It is read-only after
// ParseBulletin returns and is discarded after one extraction pass.
type Bulletin struct {
	Root           string // root element name, e.g. "product"
	IssueTimeLocal string // amoc/issue-time-local, "" when absent
	WarningSummary string // first //warning-summary, trimmed, "" when absent
	Areas          []Area // every area element in document order
}

// Area is a named forecast region.
type Area struct {
	Description string
	Type        string
	AAC         string
	Periods     []ForecastPeriod
}

// ForecastPeriod is one time-bounded forecast segment of an area.
type ForecastPeriod struct {
	Index          string // raw index attribute, "0" is today
	StartTimeLocal string // raw start-time-local attribute, may be absent or malformed
	Texts          []TextItem
}

// TextItem is one labelled free-text element. Content is trimmed.
type TextItem struct {
	Type    string
	Content string
}

// node is a generic element tree; the bulletin schema is wide and only a
// few paths matter, so decoding stays shape-agnostic.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// walk visits n and its descendants in document order. Returning false from
// visit stops the walk.
func (n *node) walk(visit func(*node) bool) bool {
	if !visit(n) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].walk(visit) {
			return false
		}
	}
	return true
}

// ParseBulletin decodes an XML bulletin. A document that is not well-formed
// returns a *ParseError; every other deviation is tolerated.
func ParseBulletin(r io.Reader) (*Bulletin, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var root node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, &ParseError{Err: err}
	}
	if err := expectEOF(dec); err != nil {
		return nil, &ParseError{Err: err}
	}

	b := &Bulletin{Root: root.XMLName.Local}
	if amoc := root.child("amoc"); amoc != nil {
		if issued := amoc.child("issue-time-local"); issued != nil {
			b.IssueTimeLocal = strings.TrimSpace(issued.Text)
		}
	}

	foundWarning := false
	root.walk(func(n *node) bool {
		switch n.XMLName.Local {
		case "area":
			b.Areas = append(b.Areas, buildArea(n))
		case "warning-summary":
			if !foundWarning {
				foundWarning = true
				b.WarningSummary = strings.TrimSpace(n.Text)
			}
		}
		return true
	})

	return b, nil
}

// expectEOF rejects anything but whitespace, comments and processing
// instructions after the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("junk after document element: <%s>", t.Name.Local)
		case xml.EndElement:
			return fmt.Errorf("junk after document element: </%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("junk after document element: text")
			}
		}
	}
}

// ParseBulletinFile opens and parses the bulletin at path.
func ParseBulletinFile(path string) (*Bulletin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := ParseBulletin(f)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return b, nil
}

func buildArea(n *node) Area {
	area := Area{
		Description: strings.TrimSpace(n.attr("description")),
		Type:        n.attr("type"),
		AAC:         n.attr("aac"),
	}
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local != "forecast-period" {
			continue
		}
		period := ForecastPeriod{
			Index:          strings.TrimSpace(c.attr("index")),
			StartTimeLocal: strings.TrimSpace(c.attr("start-time-local")),
		}
		for j := range c.Children {
			t := &c.Children[j]
			if t.XMLName.Local != "text" {
				continue
			}
			period.Texts = append(period.Texts, TextItem{
				Type:    t.attr("type"),
				Content: strings.TrimSpace(t.Text),
			})
		}
		area.Periods = append(area.Periods, period)
	}
	return area
}

// FindArea returns the first area whose description matches exactly.
func (b *Bulletin) FindArea(description string) (*Area, bool) {
	for i := range b.Areas {
		if b.Areas[i].Description == description {
			return &b.Areas[i], true
		}
	}
	return nil, false
}

// ListAreas returns every area description in document order. Duplicates are
// kept so schema changes upstream are easy to spot.
func ListAreas(b *Bulletin) []string {
	names := make([]string, 0, len(b.Areas))
	for _, a := range b.Areas {
		names = append(names, a.Description)
	}
	return names
}
