package formatter

import (
	"strings"
	"testing"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
)

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Primary Blue", "primary-blue"},
		{"Primary / 500", "primary-500"},
		{"button_hover", "button-hover"},
		{"Heading 1!", "heading-1"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := toKebabCase(tt.input); got != tt.expected {
				t.Errorf("toKebabCase(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToMarkdown(t *testing.T) {
	radius := 4.0
	toks := []tokens.DesignToken{
		{ID: "1", Name: "Primary/500", Kind: tokens.KindColor, Category: "colors/primary", Value: tokens.Value{Color: "#3366FF"}},
		{ID: "2", Name: "Primary/500", Kind: tokens.KindColor, Category: "colors/primary", Value: tokens.Value{Color: "#2255EE"}},
		{ID: "3", Name: "Surface", Kind: tokens.KindColor, Category: "colors/background", Value: tokens.Value{Color: "#FFFFFF"}},
		{ID: "4", Name: "Card", Kind: tokens.KindBorderRadius, Category: "radii", Value: tokens.Value{Number: &radius}},
		{ID: "style-S:1", Name: "Brand", Kind: tokens.KindColor, Category: "colors/primary", StyleID: "S:1", Unresolved: true},
	}
	comps := []components.Component{
		{
			ID: "3:0", Name: "Button", Type: figma.NodeTypeComponentSet, Description: "Primary | secondary",
			Variants:   []components.Component{{ID: "3:1"}, {ID: "3:2"}},
			UsedTokens: components.UsedTokens{Colors: []string{"1"}, Spacing: []string{"4"}},
			PreviewURL: "https://img.example/3-0.png",
		},
	}

	md := ToMarkdown("Design System", toks, comps)

	wants := []string{
		"# Design Tokens - Design System",
		"5 tokens and 1 components synced from Figma.",
		"### Color Palette",
		"/* colors/background */\n--color-surface: #FFFFFF;\n\n/* colors/primary */\n--color-primary-500: #3366FF;\n--color-primary-500-2: #2255EE;\n",
		"/* --color-brand: unresolved style S:1 */",
		"### Border Radius",
		"--radius-card: 4px;",
		"| [Button](https://img.example/3-0.png) | COMPONENT_SET | 2 | 2 | Primary \\| secondary |",
	}
	for _, want := range wants {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}

	if strings.Contains(md, "### Typography") {
		t.Error("empty sections must be omitted")
	}
}
