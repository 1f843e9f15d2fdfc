// Package formatter renders cached tokens and components as a markdown
// report with ready-to-use CSS custom properties.
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/tokens"
)

type section struct {
	kind   tokens.Kind
	title  string
	prefix string
}

var sections = []section{
	{tokens.KindColor, "Color Palette", "color"},
	{tokens.KindTypography, "Typography", "font"},
	{tokens.KindSpacing, "Spacing", "space"},
	{tokens.KindBorderRadius, "Border Radius", "radius"},
	{tokens.KindShadow, "Shadows", "shadow"},
	{tokens.KindEffect, "Effects", "effect"},
}

// ToMarkdown transforms tokens and components into a markdown document.
// Tokens are emitted as CSS variable definitions, one code block per kind
// and one comment-delimited group per category. Unresolved style tokens are
// listed as comments. Components are summarized in a table with the number
// of tokens each one uses.
func ToMarkdown(title string, toks []tokens.DesignToken, comps []components.Component) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Design Tokens - %s\n\n", title))
	sb.WriteString(fmt.Sprintf("%d tokens and %d components synced from Figma.\n\n", len(toks), len(comps)))

	byKind := make(map[tokens.Kind][]tokens.DesignToken)
	for _, t := range toks {
		byKind[t.Kind] = append(byKind[t.Kind], t)
	}

	sb.WriteString("## Design System\n\n")
	for _, s := range sections {
		list := byKind[s.kind]
		if len(list) == 0 {
			continue
		}
		writeSection(&sb, s, list)
	}

	if len(comps) > 0 {
		writeComponents(&sb, comps)
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, s section, list []tokens.DesignToken) {
	sb.WriteString(fmt.Sprintf("### %s\n\n", s.title))
	sb.WriteString("```css\n")

	var categories []string
	byCategory := make(map[string][]tokens.DesignToken)
	for _, t := range list {
		if _, ok := byCategory[t.Category]; !ok {
			categories = append(categories, t.Category)
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
	sort.Strings(categories)

	used := make(map[string]int)
	for i, category := range categories {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("/* %s */\n", category))
		for _, t := range byCategory[category] {
			name := variableName(s.prefix, t.Name, used)
			if t.Unresolved {
				sb.WriteString(fmt.Sprintf("/* %s: unresolved style %s */\n", name, t.StyleID))
				continue
			}
			sb.WriteString(fmt.Sprintf("%s: %s;\n", name, t.Value.String()))
		}
	}

	sb.WriteString("```\n\n")
}

// variableName returns a unique custom property name, suffixing repeated
// names with -2, -3 and so on.
func variableName(prefix, name string, used map[string]int) string {
	base := "--" + prefix
	if kebab := toKebabCase(name); kebab != "" {
		base += "-" + kebab
	}

	used[base]++
	if n := used[base]; n > 1 {
		return base + "-" + strconv.Itoa(n)
	}
	return base
}

func writeComponents(sb *strings.Builder, comps []components.Component) {
	sb.WriteString("## Components\n\n")
	sb.WriteString("| Component | Type | Variants | Tokens | Description |\n")
	sb.WriteString("|-----------|------|----------|--------|-------------|\n")
	for _, c := range comps {
		name := c.Name
		if c.PreviewURL != "" {
			name = fmt.Sprintf("[%s](%s)", c.Name, c.PreviewURL)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
			escapeCell(name), c.Type, len(c.Variants), len(c.UsedTokens.All()), escapeCell(c.Description)))
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// toKebabCase converts a string to kebab-case format (lowercase with hyphens).
// This is used for generating CSS variable names from Figma node names.
// Path separators and spaces become hyphens, other special characters are removed.
func toKebabCase(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "_", "-", "/", "-", ".", "-").Replace(s)

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}

	// Collapse repeated hyphens left by "Primary / 500".
	out := result.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}
