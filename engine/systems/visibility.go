package systems

import (
	"strings"

	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// VariantSelection is the current parameter value of every variant group.
type VariantSelection struct {
	Size       string
	Mask       string
	Runner     string
	Collection string
	// Sizes lists every size label, used to split "socket_belly_l" into the
	// slot "belly" and the size "l".
	Sizes []string
}

type variantMember struct {
	node  *scene.Node
	label string
}

type variantGroup struct {
	key      string
	selected string
	members  []variantMember
}

// VisibilityReport summarises one visibility pass.
type VisibilityReport struct {
	Groups int
	// Fallbacks counts groups where no member matched and the first was kept.
	Fallbacks int
}

// ApplyVariantVisibility keeps exactly one member of each variant group
// visible: the one whose label equals the selected value, ignoring case, or
// the first authored member when none does. Mask, runner and collection
// groups span the whole graph and only the top-most classified node of a
// subtree is a member; sockets group by slot, and sockets without a size
// label are left alone.
func ApplyVariantVisibility(root *scene.Node, c *NodeClassifier, sel VariantSelection) VisibilityReport {
	groups := make(map[string]*variantGroup)
	var order []*variantGroup
	add := func(key, selected string, m variantMember) {
		g, ok := groups[key]
		if !ok {
			g = &variantGroup{key: key, selected: strings.ToLower(selected)}
			groups[key] = g
			order = append(order, g)
		}
		g.members = append(g.members, m)
	}

	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		role := c.Classify(n)
		// A variant member hides or shows its whole subtree, so its
		// descendants never form members of their own.
		switch role.Kind {
		case RoleMask:
			add("mask", sel.Mask, variantMember{n, role.Variant})
			return scene.Break
		case RoleRunner:
			add("runner", sel.Runner, variantMember{n, role.Variant})
			return scene.Break
		case RoleCollection:
			add("collection", sel.Collection, variantMember{n, role.Variant})
			return scene.Break
		case RoleSocket:
			slot, size := splitSizeSuffix(role.Variant, sel.Sizes)
			if size != "" {
				add("socket:"+slot, sel.Size, variantMember{n, size})
			}
		}
		return scene.Continue
	})

	report := VisibilityReport{Groups: len(order)}
	for _, g := range order {
		chosen := -1
		for i, m := range g.members {
			if m.label == g.selected {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			chosen = 0
			report.Fallbacks++
			core.LogDebug("no %s variant matches '%s', showing '%s'", g.key, g.selected, g.members[0].node.Name)
		}
		for i, m := range g.members {
			m.node.Visible = i == chosen
		}
	}
	return report
}

// splitSizeSuffix splits a trailing size token off label.
func splitSizeSuffix(label string, sizes []string) (string, string) {
	i := strings.LastIndexAny(label, "_-")
	if i < 0 {
		return label, ""
	}
	suffix := label[i+1:]
	for _, s := range sizes {
		if strings.EqualFold(s, suffix) {
			return label[:i], strings.ToLower(s)
		}
	}
	return label, ""
}
