// Package tools generates browsable documentation for a rule pack,
// grounded on the teacher's tools/spec-html.go: authored Markdown is
// rendered to HTML with blackfriday, wrapped in a plain page.
package tools

import (
	"fmt"
	"io"

	md "github.com/russross/blackfriday/v2"

	"github.com/lvkbot/nlptree/rulestore"
)

// RenderRuleHTML writes an HTML fragment documenting a single rule:
// its authored Doc (rendered as Markdown), its input patterns, and its
// conditional outputs.
func RenderRuleHTML(r rulestore.Rule, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="rule" id="rule-%d">`, r.ID)
	f(`<h2>Rule %d</h2>`, r.ID)

	if r.Doc != "" {
		f(`<div class="ruleDoc doc">%s</div>`, md.Run([]byte(r.Doc)))
	}

	f(`<div class="inputs"><h3>Inputs</h3><ul>`)
	for _, in := range r.Inputs {
		f(`<li><code>%s</code></li>`, in)
	}
	f(`</ul></div>`)

	f(`<div class="outputs"><h3>Outputs</h3><table>`)
	for _, o := range r.Outputs {
		if o.If != "" {
			f(`<tr><td><code>if %s</code></td><td>%s</td></tr>`, o.If, md.Run([]byte(o.Template)))
		} else {
			f(`<tr><td></td><td>%s</td></tr>`, md.Run([]byte(o.Template)))
		}
	}
	f(`</table></div>`)

	f(`</div>`)

	return nil
}

// RenderRulePackPage writes a complete HTML page documenting every
// rule in pack, in the order it was authored.
func RenderRulePackPage(pack rulestore.RulePack, title string, out io.Writer) error {
	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
    <title>%s</title>
  </head>
  <body>
    <h1>%s</h1>
`, title, title)

	for _, r := range pack.Rules {
		if err := RenderRuleHTML(r, out); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)
	return nil
}
