package systems

import (
	"strings"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// AssetLoaderFunc loads an asset by path; used for fallback reference assets.
type AssetLoaderFunc func(path string) (*scene.Asset, error)

// UnitCalibrator derives the centimetres-per-model-unit ratio of an asset
// from an embedded reference object of known length.
type UnitCalibrator struct {
	cfg        *config.Config
	classifier *NodeClassifier
	// Fallback loads the configured fallback reference assets. May be nil.
	Fallback AssetLoaderFunc
}

func NewUnitCalibrator(cfg *config.Config, classifier *NodeClassifier, fallback AssetLoaderFunc) *UnitCalibrator {
	return &UnitCalibrator{cfg: cfg, classifier: classifier, Fallback: fallback}
}

// Calibrate returns the ratio for asset and the given size variant. The first
// result for a variant is cached on st and returned unchanged afterwards,
// including a miss. ok is false when no reference exists anywhere in the
// fallback chain.
func (uc *UnitCalibrator) Calibrate(st *AssetState, asset *scene.Asset, variantHint string) (float32, bool) {
	hint := strings.ToLower(strings.TrimSpace(variantHint))
	if ratio, ok, cached := st.CachedRatio(hint); cached {
		return ratio, ok
	}

	ratio, ok := uc.measure(asset, hint)
	if !ok {
		for _, path := range uc.cfg.Calibration.FallbackAssets {
			if uc.Fallback == nil {
				break
			}
			fb, err := uc.Fallback(path)
			if err != nil {
				core.LogWarn("failed to load fallback reference asset '%s': %s", path, err.Error())
				continue
			}
			if ratio, ok = uc.measure(fb, hint); ok {
				core.LogDebug("calibrated '%s' from fallback asset '%s'", asset.Path, path)
				break
			}
		}
	}
	if !ok {
		core.LogInfo("%s for '%s' (size %s); physical dimensions disabled", core.ErrMissingCalibrationReference, asset.Path, variantHint)
		ratio = 0
	}
	st.ratios[hint] = calibrationEntry{ratio: ratio, ok: ok}
	return ratio, ok
}

// measure finds the reference for hint in asset and divides its known length
// by its extent along the model's long axis.
func (uc *UnitCalibrator) measure(asset *scene.Asset, hint string) (float32, bool) {
	if asset == nil || asset.Root == nil {
		return 0, false
	}
	ref := uc.findReference(asset.Root, hint)
	if ref == nil {
		return 0, false
	}

	model := asset.Root.SubtreeBounds(func(n *scene.Node) bool { return !uc.classifier.IsReference(n) })
	refBounds := ref.SubtreeBounds(nil)
	if refBounds.IsEmpty() {
		core.LogWarn("calibration reference '%s' in '%s' has no geometry", ref.Name, asset.Path)
		return 0, false
	}
	axis, _ := refBounds.LongestAxis()
	if !model.IsEmpty() {
		axis, _ = model.LongestAxis()
	}
	extent := refBounds.Size().Component(axis)
	if extent <= math.K_FLOAT_EPSILON {
		core.LogWarn("calibration reference '%s' in '%s' is flat along %s", ref.Name, asset.Path, axis)
		return 0, false
	}
	return uc.cfg.KnownLength(hint) / extent, true
}

// findReference prefers a reference whose name carries the variant hint as a
// token and otherwise returns the first reference without a size token. A
// reference of another size is never used: its length belongs to that size.
func (uc *UnitCalibrator) findReference(root *scene.Node, hint string) *scene.Node {
	var refs []*scene.Node
	root.WalkPre(func(n *scene.Node) bool {
		if uc.classifier.IsReference(n) {
			refs = append(refs, n)
			return scene.Break
		}
		return scene.Continue
	})
	if len(refs) == 0 {
		return nil
	}
	var generic *scene.Node
	for _, r := range refs {
		tokens := nameTokens(r.Name)
		if hint != "" && containsString(tokens, hint) {
			return r
		}
		if generic == nil && !uc.hasSizeToken(tokens) {
			generic = r
		}
	}
	return generic
}

func (uc *UnitCalibrator) hasSizeToken(tokens []string) bool {
	for size := range uc.cfg.SizeCategories {
		if containsString(tokens, strings.ToLower(size)) {
			return true
		}
	}
	return false
}

// HideReferences hides every reference subtree of root.
func (uc *UnitCalibrator) HideReferences(root *scene.Node) int {
	hidden := 0
	root.WalkPre(func(n *scene.Node) bool {
		if uc.classifier.IsReference(n) {
			n.Visible = false
			hidden++
			return scene.Break
		}
		return scene.Continue
	})
	return hidden
}

func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
