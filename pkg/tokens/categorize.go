package tokens

import "strings"

// Uncategorized is returned when no rule matches.
const Uncategorized = "uncategorized"

// Rule maps any of its substrings (matched against the lower-cased name) to a category.
type Rule struct {
	Contains []string
	Category string
}

// Rules is evaluated top to bottom and the first match wins. The order is
// part of the observable behavior: "Primary Heading" is colors/primary.
var Rules = []Rule{
	{Contains: []string{"primary", "brand"}, Category: "colors/primary"},
	{Contains: []string{"secondary"}, Category: "colors/secondary"},
	{Contains: []string{"success", "error", "warning", "danger", "info"}, Category: "colors/semantic"},
	{Contains: []string{"neutral", "gray", "grey"}, Category: "colors/neutral"},
	{Contains: []string{"background", "bg", "surface"}, Category: "colors/background"},
	{Contains: []string{"border", "outline", "divider"}, Category: "colors/border"},
	{Contains: []string{"heading", "h1", "h2", "h3", "h4", "h5", "h6", "display", "title"}, Category: "typography/headings"},
	{Contains: []string{"body", "paragraph"}, Category: "typography/body"},
	{Contains: []string{"caption", "label", "overline"}, Category: "typography/captions"},
	{Contains: []string{"shadow", "elevation"}, Category: "effects/shadows"},
	{Contains: []string{"radius", "rounded", "corner"}, Category: "radii"},
	{Contains: []string{"spacing", "space", "gap", "padding"}, Category: "spacing"},
}

// Categorize returns the category of the first rule matching name.
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range Rules {
		for _, s := range rule.Contains {
			if strings.Contains(lower, s) {
				return rule.Category
			}
		}
	}
	return Uncategorized
}
