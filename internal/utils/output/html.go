package output

import (
	"fmt"
	stdhtml "html"
	"io"

	"github.com/law-makers/screengrab/pkg/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WriteHTML renders a standalone gallery page: one section per collection
// with its logo, name, source link and every screen in order
func WriteHTML(w io.Writer, collections []models.ScreenCollection) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, "lang", "en")
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	head.AppendChild(withText(element(atom.Title), "Screen collections"))
	head.AppendChild(withText(element(atom.Style), galleryCSS))
	root.AppendChild(head)

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), "Screen collections"))
	for _, c := range collections {
		body.AppendChild(collectionSection(c))
	}
	root.AppendChild(body)

	return html.Render(w, doc)
}

func collectionSection(c models.ScreenCollection) *html.Node {
	// Names are stored escaped; the renderer escapes text again
	name := stdhtml.UnescapeString(c.Name)

	section := element(atom.Section, "id", c.ID, "class", "collection")

	header := element(atom.Header)
	if c.LogoURL != "" {
		header.AppendChild(element(atom.Img, "class", "logo", "src", c.LogoURL, "alt", name+" logo"))
	}
	header.AppendChild(withText(element(atom.H2), name))

	meta := element(atom.P)
	source := withText(element(atom.A, "href", c.SourceURL), c.SourceURL)
	meta.AppendChild(source)
	meta.AppendChild(&html.Node{Type: html.TextNode, Data: fmt.Sprintf(" (%d screens)", c.ScreenCount)})
	header.AppendChild(meta)
	section.AppendChild(header)

	list := element(atom.Ol, "class", "screens")
	for i, src := range c.Screens {
		li := element(atom.Li)
		li.AppendChild(element(atom.Img, "src", src, "alt", fmt.Sprintf("%s screen %d", name, i+1), "loading", "lazy"))
		list.AppendChild(li)
	}
	section.AppendChild(list)

	return section
}

// element creates an element node; attrs are key/value pairs
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

const galleryCSS = `body{font-family:system-ui,sans-serif;margin:2rem}
.collection header{display:flex;align-items:center;gap:1rem}
.logo{width:48px;height:48px;border-radius:12px}
.screens{display:grid;grid-template-columns:repeat(auto-fill,minmax(180px,1fr));gap:1rem;list-style:none;padding:0}
.screens img{width:100%;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.2)}`
