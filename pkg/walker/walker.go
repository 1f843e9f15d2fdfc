// Package walker implements the depth-first traversal shared by the token and
// component extractors.
package walker

import (
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/logger"
)

// Context is the ambient state of the walk at the visited node.
// Entering a valid CANVAS sets PageID and clears FrameID. Entering a valid
// FRAME sets FrameID. Both apply to the node itself and to its descendants;
// a malformed CANVAS or FRAME leaves the context of its subtree unchanged.
type Context struct {
	PageID   string
	FrameID  string
	ParentID string
	Depth    int
}

// Visitor is invoked once per valid node in pre-order.
type Visitor interface {
	Visit(node *figma.Node, ctx Context)
}

// VisitorFunc adapts a function to a Visitor.
type VisitorFunc func(node *figma.Node, ctx Context)

// Visit calls f(node, ctx).
func (f VisitorFunc) Visit(node *figma.Node, ctx Context) { f(node, ctx) }

// Walker walks node trees. The zero value is silent.
type Walker struct {
	Logger logger.Logger
}

// Stats reports what a walk saw.
type Stats struct {
	Visited int
	Skipped int
	Unknown int // valid nodes whose type is not a declared figma.NodeType
}

// Walk visits root and all of its descendants. Nodes that fail validation are
// not handed to visitors but their children are still walked.
func (w *Walker) Walk(root *figma.Node, visitors ...Visitor) Stats {
	var stats Stats
	if root == nil {
		return stats
	}
	w.walk(root, Context{}, visitors, &stats)
	return stats
}

func (w *Walker) walk(node *figma.Node, ctx Context, visitors []Visitor, stats *Stats) {
	if err := node.Validate(); err != nil {
		stats.Skipped++
		logger.OrNop(w.Logger).Warnf("Skipping node %q (%s) under %q: %v", node.ID, node.Type, ctx.ParentID, err)
	} else {
		switch node.Type {
		case figma.NodeTypeCanvas:
			ctx.PageID = node.ID
			ctx.FrameID = ""
		case figma.NodeTypeFrame:
			ctx.FrameID = node.ID
		}
		if !node.Type.Known() {
			stats.Unknown++
		}

		stats.Visited++
		for _, v := range visitors {
			v.Visit(node, ctx)
		}
	}

	child := ctx
	child.ParentID = node.ID
	child.Depth = ctx.Depth + 1
	for i := range node.Children {
		w.walk(&node.Children[i], child, visitors, stats)
	}
}

// Walk is a convenience for a silent Walker.
func Walk(root *figma.Node, visitors ...Visitor) Stats {
	var w Walker
	return w.Walk(root, visitors...)
}
