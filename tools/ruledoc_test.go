package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lvkbot/nlptree/rulestore"
)

func TestRenderRulePackPage(t *testing.T) {
	pack := rulestore.RulePack{
		Rules: []rulestore.Rule{
			{
				ID:     1,
				Inputs: []string{"hello [name]"},
				Outputs: []rulestore.Output{
					{If: "name == ada", Template: "hi ada"},
					{Template: "hi stranger"},
				},
				Doc: "Greets the user, by name when one is given.",
			},
		},
	}

	var buf bytes.Buffer
	if err := RenderRulePackPage(pack, "Greetings", &buf); err != nil {
		t.Fatalf("RenderRulePackPage: %s", err)
	}

	html := buf.String()
	for _, want := range []string{"Greetings", "rule-1", "hello [name]", "Greets the user"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q\n%s", want, html)
		}
	}
}
