package systems

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// PhysicalDimensions are derived on every pass and never stored as truth.
type PhysicalDimensions struct {
	LengthCm float32
	HeightCm float32
	WidthCm  float32
	// Ratio is centimetres per model unit; zero when unknown.
	Ratio float32
	// Calibrated is false when no reference was found.
	Calibrated bool
	// Approximate is set when the configured default ratio stood in.
	Approximate bool
}

// Metadata is read from custom properties of the base asset.
type Metadata struct {
	Name         string
	Manufacturer string
	Model        string
	Description  string
}

// Result is the output of one composition pass.
type Result struct {
	Scene              *scene.Node
	Dimensions         PhysicalDimensions
	HasAccessorySocket bool
	Metadata           Metadata
	// Size is the size category actually applied.
	Size string
	// Attached maps slot name to the variant attached there.
	Attached map[string]string
	Warnings []string
}

// CompositionPipeline turns (base asset, accessory libraries, params) into a
// composed host graph. It is bound to one host at a time and is not safe for
// concurrent passes; the caller serializes them.
type CompositionPipeline struct {
	cfg     *config.Config
	systems *SystemManager
	arena   *StateArena
	metrics *core.MetricsState
	clock   *core.Clock

	hostID string
}

func NewCompositionPipeline(cfg *config.Config, sm *SystemManager, arena *StateArena, metrics *core.MetricsState) *CompositionPipeline {
	if arena == nil {
		arena = NewStateArena()
	}
	if metrics == nil {
		metrics = core.NewMetrics()
	}
	return &CompositionPipeline{
		cfg:     cfg,
		systems: sm,
		arena:   arena,
		metrics: metrics,
		clock:   core.NewClock(),
	}
}

func (cp *CompositionPipeline) Metrics() *core.MetricsState {
	return cp.metrics
}

func (cp *CompositionPipeline) Arena() *StateArena {
	return cp.arena
}

// Invalidate drops the cached state of an asset instance, e.g. after a reload.
func (cp *CompositionPipeline) Invalidate(assetID string) {
	if cp.arena.Drop(assetID) {
		core.LogDebug("dropped state of asset %s", assetID)
	}
	if cp.hostID == assetID {
		cp.hostID = ""
	}
}

// Release lets go of the current host state.
func (cp *CompositionPipeline) Release() {
	if cp.hostID != "" {
		cp.arena.Release(cp.hostID)
		cp.hostID = ""
	}
}

func (cp *CompositionPipeline) acquire(base *scene.Asset) (*AssetState, error) {
	if cp.hostID == base.ID {
		if st, ok := cp.arena.Get(base.ID); ok {
			return st, nil
		}
	}
	cp.Release()
	st, err := cp.arena.Acquire(base)
	if err != nil {
		return nil, err
	}
	cp.hostID = base.ID
	return st, nil
}

// Compose runs one full pass. libs maps accessory family to library asset.
// Nothing in a pass is fatal: problems degrade the result and are listed in
// Result.Warnings.
func (cp *CompositionPipeline) Compose(base *scene.Asset, libs map[string]*scene.Asset, p config.Params) *Result {
	cp.clock.Start()
	defer func() {
		cp.clock.Stop()
		cp.metrics.RecordPass(cp.clock.Elapsed())
	}()

	res := &Result{Attached: make(map[string]string)}
	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
	}
	if base == nil || base.Root == nil {
		warn("no base asset")
		return res
	}
	st, err := cp.acquire(base)
	if err != nil {
		warn("%s", err.Error())
		return res
	}
	res.Scene = st.Host

	c := cp.systems.classifier
	sizeScale, sizeName := cp.cfg.SizeScale(p.Size)
	if p.Size != "" && sizeName != p.Size {
		warn("unknown size '%s', using '%s'", p.Size, sizeName)
	}
	res.Size = sizeName

	cp.systems.calibrator.HideReferences(st.Host)
	ratio, calibrated := cp.systems.calibrator.Calibrate(st, base, sizeName)
	if !calibrated {
		cp.metrics.IncCalibrationMiss()
		warn("%s", core.ErrMissingCalibrationReference)
	}

	cp.systems.normalizer.Normalize(st)
	cp.systems.normalizer.ApplySizeScale(st, sizeScale)

	vis := ApplyVariantVisibility(st.Host, c, VariantSelection{
		Size:       sizeName,
		Mask:       p.Mask,
		Runner:     p.Runner,
		Collection: p.Collection,
		Sizes:      cp.cfg.SizeNames(),
	})
	for i := 0; i < vis.Fallbacks; i++ {
		cp.metrics.IncVariantFallback()
	}

	SplitSharedMaterials(st.Host, c)
	ApplyBaseColor(st.Host, c, p.BaseColor)
	ApplyEyeColors(st.Host, c, p.Eyes)
	cp.applyGradient(st.Host, p)

	cp.attachAccessories(st, libs, p, sizeScale, res, warn)

	res.HasAccessorySocket = cp.hasAccessorySocket(st.Host)
	res.Dimensions = cp.dimensions(st, ratio, calibrated)
	if st.metadata == nil {
		md := readMetadata(st.Host)
		st.metadata = &md
	}
	res.Metadata = *st.metadata
	return res
}

func (cp *CompositionPipeline) gradientTargets(root *scene.Node, p config.Params) []*scene.Node {
	tokens := p.Gradient.Targets
	if len(tokens) == 0 {
		tokens = cp.cfg.GradientTargets
	}
	var out []*scene.Node
	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) || cp.systems.classifier.IsReference(n) {
			return scene.Break
		}
		if n.Mesh == nil || cp.systems.classifier.Classify(n).Kind != RoleGeneric {
			return scene.Continue
		}
		if len(tokens) == 0 || nameMatchesAny(n.Name, tokens) {
			out = append(out, n)
		}
		return scene.Continue
	})
	return out
}

func (cp *CompositionPipeline) applyGradient(root *scene.Node, p config.Params) {
	targets := cp.gradientTargets(root, p)
	if len(targets) == 0 {
		return
	}
	lo, hi, ok := scene.ProjectedRange(targets, p.Gradient.Axis().Direction())
	if !ok {
		lo, hi = 0, 0
	}
	bounds := GradientBounds{Min: lo, Max: hi}
	for _, n := range targets {
		cp.systems.gradient.Apply(n, p.Gradient, p.Texture, bounds)
	}
}

func (cp *CompositionPipeline) attachAccessories(st *AssetState, libs map[string]*scene.Asset, p config.Params, sizeScale float32, res *Result, warn func(string, ...interface{})) {
	attacher := cp.systems.attacher
	for _, slot := range cp.cfg.SlotNames() {
		sc := cp.cfg.Slots[slot]
		key := p.Accessories[slot]
		lib := libs[sc.Family]
		if strings.EqualFold(key, config.NoneVariant) || lib == nil {
			attacher.Detach(st.Host, sc.Socket)
			continue
		}
		if len(attacher.Sockets(st.Host, sc.Socket)) == 0 {
			cp.metrics.IncMissingSocket()
			core.LogDebug("%s: slot '%s' wants '%s'", core.ErrMissingSocket, slot, sc.Socket)
			continue
		}
		resolved, err := cp.systems.resolver.Resolve(lib, sc.Family, key)
		if err != nil {
			cp.metrics.IncUnresolvedAnchor()
			core.LogWarn("slot '%s': %s", slot, err.Error())
			warn("slot '%s': %s", slot, err.Error())
			attacher.Detach(st.Host, sc.Socket)
			continue
		}
		if resolved.FellBack {
			cp.metrics.IncVariantFallback()
		}
		if resolved.Suspicious {
			cp.metrics.IncSuspiciousCluster()
			warn("slot '%s': suspiciously large cluster for '%s'", slot, resolved.Variant)
		}
		if attacher.Attach(st.Host, sc.Socket, resolved, sizeScale) {
			res.Attached[slot] = resolved.Variant
		}
	}
}

func (cp *CompositionPipeline) hasAccessorySocket(root *scene.Node) bool {
	for _, sc := range cp.cfg.Slots {
		if len(cp.systems.attacher.Sockets(root, sc.Socket)) > 0 {
			return true
		}
	}
	return false
}

// dimensions scales the normalized extents back to centimetres:
// extent x ratio x size multiplier, with the long axis as length and the
// vertical axis as height.
func (cp *CompositionPipeline) dimensions(st *AssetState, ratio float32, calibrated bool) PhysicalDimensions {
	d := PhysicalDimensions{Ratio: ratio, Calibrated: calibrated}
	if !calibrated {
		if cp.cfg.Calibration.DefaultRatio <= 0 {
			return d
		}
		ratio = cp.cfg.Calibration.DefaultRatio
		d.Ratio = ratio
		d.Approximate = true
	}
	if st.BaseExtents.IsEmpty() {
		return d
	}
	size := st.BaseExtents.Size().MulScalar(ratio * st.SizeScale)
	length, long := size.MaxComponent()
	d.LengthCm = length

	var rest []math.Axis
	for _, a := range []math.Axis{math.AxisX, math.AxisY, math.AxisZ} {
		if a != long {
			rest = append(rest, a)
		}
	}
	h, w := rest[0], rest[1]
	switch {
	case long != math.AxisY:
		h = math.AxisY
		w = rest[0]
		if w == math.AxisY {
			w = rest[1]
		}
	case size.Component(rest[1]) > size.Component(rest[0]):
		h, w = rest[1], rest[0]
	}
	d.HeightCm = size.Component(h)
	d.WidthCm = size.Component(w)
	return d
}

var metadataKeys = []string{"name", "manufacturer", "model", "description"}

// readMetadata takes the first value of each key in pre-order, ignoring case.
func readMetadata(root *scene.Node) Metadata {
	found := make(map[string]string, len(metadataKeys))
	root.WalkPre(func(n *scene.Node) bool {
		if IsAttached(n) {
			return scene.Break
		}
		if len(n.Properties) == 0 {
			return scene.Continue
		}
		keys := make([]string, 0, len(n.Properties))
		for k := range n.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, want := range metadataKeys {
			if _, ok := found[want]; ok {
				continue
			}
			for _, k := range keys {
				if strings.EqualFold(k, want) {
					found[want] = fmt.Sprint(n.Properties[k])
					break
				}
			}
		}
		return scene.Continue
	})
	return Metadata{
		Name:         found["name"],
		Manufacturer: found["manufacturer"],
		Model:        found["model"],
		Description:  found["description"],
	}
}

func nameMatchesAny(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
