package systems

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

const (
	defaultClusterSize        = 3
	defaultSuspiciousFraction = 0.5
)

var defaultAnchorPrefixes = []string{"anchor_"}

// Resolved is one accessory variant located inside its library.
type Resolved struct {
	Library *scene.Asset
	Family  string
	// Variant is the key actually used, after any fallback.
	Variant string
	Anchor  *scene.Node
	// Cluster holds the library meshes nearest the anchor, nearest first.
	Cluster []*scene.Node
	// Suspicious is set when the cluster covers a large share of the library.
	Suspicious bool
	// FellBack is set when the requested key was not recognised.
	FellBack bool
}

// AccessoryResolver locates the anchor and mesh cluster of an accessory variant.
type AccessoryResolver struct {
	cfg        *config.Config
	classifier *NodeClassifier
}

func NewAccessoryResolver(cfg *config.Config, classifier *NodeClassifier) *AccessoryResolver {
	return &AccessoryResolver{cfg: cfg, classifier: classifier}
}

func (ar *AccessoryResolver) family(name string) config.FamilyConfig {
	f, ok := ar.cfg.Families[name]
	if !ok {
		core.LogDebug("accessory family '%s' is not configured, using defaults", name)
	}
	if f.ClusterSize < 1 {
		f.ClusterSize = defaultClusterSize
	}
	if len(f.AnchorPrefixes) == 0 {
		f.AnchorPrefixes = defaultAnchorPrefixes
	}
	if f.SuspiciousFraction <= 0 {
		f.SuspiciousFraction = defaultSuspiciousFraction
	}
	return f
}

// sortedPrefixes returns the lower-cased prefixes, longest first, so that
// "hook_anchor_" wins over "anchor" for the same name.
func sortedPrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.ToLower(p); p != "" {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// anchorKey returns the variant key encoded in an anchor name.
func anchorKey(name string, prefixes []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			key := trimSeparators(lower[len(p):])
			if key != "" {
				return key, true
			}
		}
	}
	return "", false
}

// Variants returns the keys of every anchor in lib, in authored order.
func (ar *AccessoryResolver) Variants(lib *scene.Asset, family string) []string {
	prefixes := sortedPrefixes(ar.family(family).AnchorPrefixes)
	var keys []string
	seen := make(map[string]bool)
	lib.Root.WalkPre(func(n *scene.Node) bool {
		if key, ok := anchorKey(n.Name, prefixes); ok && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		return scene.Continue
	})
	return keys
}

// Resolve finds the anchor of variantKey in lib and the meshes nearest to it.
// Unknown keys resolve to the family's default variant, or to the first
// authored variant when the default is missing too. A library without any
// anchor yields ErrUnresolvedAccessoryAnchor.
func (ar *AccessoryResolver) Resolve(lib *scene.Asset, family string, variantKey string) (*Resolved, error) {
	if lib == nil || lib.Root == nil {
		return nil, fmt.Errorf("%w: no library for family '%s'", core.ErrUnresolvedAccessoryAnchor, family)
	}
	fc := ar.family(family)
	prefixes := sortedPrefixes(fc.AnchorPrefixes)

	keys := ar.Variants(lib, family)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: library '%s' has no anchors", core.ErrUnresolvedAccessoryAnchor, lib.Path)
	}

	key := strings.ToLower(strings.TrimSpace(variantKey))
	fellBack := false
	if !containsString(keys, key) {
		def := strings.ToLower(fc.DefaultVariant)
		if !containsString(keys, def) {
			def = keys[0]
		}
		core.LogDebug("%s '%s' for family '%s', using '%s'", core.ErrInvalidVariantKey, variantKey, family, def)
		key, fellBack = def, true
	}

	anchor := lib.Root.FindFunc(func(n *scene.Node) bool {
		k, ok := anchorKey(n.Name, prefixes)
		return ok && k == key
	})
	if anchor == nil {
		return nil, fmt.Errorf("%w: variant '%s' in '%s'", core.ErrUnresolvedAccessoryAnchor, key, lib.Path)
	}

	cluster, total := ar.nearestIsland(lib.Root, anchor, fc.ClusterSize)
	res := &Resolved{
		Library:  lib,
		Family:   family,
		Variant:  key,
		Anchor:   anchor,
		Cluster:  cluster,
		FellBack: fellBack,
	}
	if total > 1 && float32(len(cluster)) >= fc.SuspiciousFraction*float32(total) {
		res.Suspicious = true
		core.LogWarn("cluster of '%s' variant '%s' holds %d of %d meshes; the anchor may be misnamed",
			family, key, len(cluster), total)
	}
	return res, nil
}

// nearestIsland returns the size meshes whose world bounds centre is closest
// to the anchor, together with the number of candidate meshes.
func (ar *AccessoryResolver) nearestIsland(root, anchor *scene.Node, size int) ([]*scene.Node, int) {
	type candidate struct {
		node *scene.Node
		dist float32
	}
	origin := anchor.WorldPosition()
	var candidates []candidate
	root.WalkPre(func(n *scene.Node) bool {
		if ar.classifier.IsReference(n) {
			return scene.Break
		}
		if n.IsMesh() {
			b := n.WorldBounds()
			if !b.IsEmpty() {
				candidates = append(candidates, candidate{n, b.Center().Distance(origin)})
			}
		}
		return scene.Continue
	})
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if size > len(candidates) {
		size = len(candidates)
	}
	out := make([]*scene.Node, size)
	for i := 0; i < size; i++ {
		out[i] = candidates[i].node
	}
	return out, len(candidates)
}
