package output

import (
	"bytes"
	"fmt"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/screengrab/pkg/models"
)

// WriteMarkdown renders the HTML gallery and converts it to Markdown
func WriteMarkdown(w io.Writer, collections []models.ScreenCollection) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, collections); err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("style", "title")

	// Screens become numbered image lines instead of a bare image list
	converter.AddRules(md.Rule{
		Filter: []string{"li"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			img := selec.Find("img").First()
			src, ok := img.Attr("src")
			if !ok {
				return nil
			}
			alt, _ := img.Attr("alt")
			str := fmt.Sprintf("%d. ![%s](%s)\n", selec.Index()+1, alt, src)
			return &str
		},
	})

	out, err := converter.ConvertString(buf.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
