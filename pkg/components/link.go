package components

import (
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/tokens"
	"github.com/kataras/figma-sync/pkg/walker"
)

// Link returns a copy of components with UsedTokens computed from each
// component's subtree and from the subtrees of its variants. A node counts
// as using a token when it references a named style present in set, or
// when it defines the same inline value the token extractor would have
// emitted for it. set is only read, and linking the same input again
// yields the same result.
//
// Components that carry no source tree (loaded from the cache) keep their
// persisted usage.
func Link(components []Component, set *tokens.Set) []Component {
	out := make([]Component, len(components))
	for i, c := range components {
		out[i] = link(c, set)
	}
	return out
}

func link(c Component, set *tokens.Set) Component {
	if len(c.Variants) > 0 {
		c.Variants = Link(c.Variants, set)
	}
	if c.node == nil {
		return c
	}

	var u usage
	walker.Walk(c.node, walker.VisitorFunc(func(n *figma.Node, _ walker.Context) {
		u.collect(n, set)
	}))
	c.UsedTokens = u.result()
	return c
}

type bucket struct {
	ids  []string
	seen map[string]struct{}
}

func (b *bucket) add(id string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, ok := b.seen[id]; ok {
		return
	}
	b.seen[id] = struct{}{}
	b.ids = append(b.ids, id)
}

func (b *bucket) list() []string {
	if b.ids == nil {
		return []string{}
	}
	return b.ids
}

type usage struct {
	colors, typography, spacing, effects bucket
}

func (u *usage) collect(n *figma.Node, set *tokens.Set) {
	styleRef := func(purpose string, b *bucket) {
		if id := n.StyleRef(purpose); id != "" && set.Has(tokens.StyleTokenID(id)) {
			b.add(tokens.StyleTokenID(id))
		}
	}
	styleRef("fill", &u.colors)
	styleRef("stroke", &u.colors)
	styleRef("text", &u.typography)
	styleRef("effect", &u.effects)

	for _, nt := range tokens.NodeTokens(n) {
		switch nt.Kind {
		case tokens.KindColor:
			u.colors.add(nt.ID)
		case tokens.KindTypography:
			u.typography.add(nt.ID)
		case tokens.KindSpacing, tokens.KindBorderRadius:
			u.spacing.add(nt.ID)
		case tokens.KindShadow, tokens.KindEffect:
			u.effects.add(nt.ID)
		}
	}
}

func (u *usage) result() UsedTokens {
	return UsedTokens{
		Colors:     u.colors.list(),
		Typography: u.typography.list(),
		Spacing:    u.spacing.list(),
		Effects:    u.effects.list(),
	}
}
