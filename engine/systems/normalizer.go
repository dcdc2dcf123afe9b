package systems

import (
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// SizeNormalizer centres the host graph, scales it to the display size and
// applies the size category multiplier on top.
type SizeNormalizer struct {
	displaySize float32
	classifier  *NodeClassifier
}

func NewSizeNormalizer(displaySize float32, classifier *NodeClassifier) *SizeNormalizer {
	return &SizeNormalizer{displaySize: displaySize, classifier: classifier}
}

// Normalize runs once per state: it moves the centre of the host bounds,
// references excluded, to the origin and scales the largest dimension to the
// display size. Returns false when the state was already normalized.
func (sn *SizeNormalizer) Normalize(st *AssetState) bool {
	if st.Normalized {
		return false
	}
	st.Normalized = true

	root := st.Host
	bounds := root.SubtreeBounds(func(n *scene.Node) bool {
		return !sn.classifier.IsReference(n) && !IsAttached(n)
	})
	st.RawExtents = bounds
	if bounds.IsEmpty() {
		core.LogWarn("host '%s' has no geometry to normalize", root.Name)
		st.NormalizeScale = 1
		st.BaseExtents = bounds
		return true
	}
	largest, _ := bounds.Size().MaxComponent()
	if largest <= math.K_FLOAT_EPSILON {
		core.LogWarn("host '%s' is degenerate, skipping normalization", root.Name)
		st.NormalizeScale = 1
		st.BaseExtents = bounds
		return true
	}

	k := sn.displaySize / largest
	center := bounds.Center()
	root.Transform.SetPosition(root.Transform.Position.Sub(center).MulScalar(k))
	root.Transform.SetScale(root.Transform.Scale.MulScalar(k))

	st.NormalizeScale = k
	st.BaseExtents = math.NewExtents3DFromSize(bounds.Size().MulScalar(k))
	core.LogDebug("normalized '%s' by %.4f (largest dimension %.4f)", root.Name, k, largest)
	return true
}

// ApplySizeScale moves the host from its current size multiplier to target by
// scaling with target/current, and records target for inverse compensation.
func (sn *SizeNormalizer) ApplySizeScale(st *AssetState, target float32) {
	if target <= 0 {
		core.LogWarn("ignoring non-positive size scale %v", target)
		return
	}
	if st.SizeScale == target {
		return
	}
	previous := st.SizeScale
	if previous <= 0 {
		previous = 1
	}
	st.Host.Transform.ScaleAboutParentOrigin(target / previous)
	st.SizeScale = target
}
