package systems

import (
	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/core"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// SystemManager owns the composition systems built from one configuration.
type SystemManager struct {
	classifier *NodeClassifier
	calibrator *UnitCalibrator
	resolver   *AccessoryResolver
	attacher   *SocketAttacher
	normalizer *SizeNormalizer
	gradient   *GradientMaterialController
}

// NewSystemManager validates cfg and builds every system. textures and
// fallback may be nil.
func NewSystemManager(cfg *config.Config, textures scene.TextureSource, fallback AssetLoaderFunc) (*SystemManager, error) {
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	cs, err := NewNodeClassifier(cfg)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return &SystemManager{
		classifier: cs,
		calibrator: NewUnitCalibrator(cfg, cs, fallback),
		resolver:   NewAccessoryResolver(cfg, cs),
		attacher:   NewSocketAttacher(cfg.SizeNames()),
		normalizer: NewSizeNormalizer(cfg.DisplaySize, cs),
		gradient:   NewGradientMaterialController(textures),
	}, nil
}

func (sm *SystemManager) Classifier() *NodeClassifier {
	return sm.classifier
}

func (sm *SystemManager) Calibrator() *UnitCalibrator {
	return sm.calibrator
}

func (sm *SystemManager) Resolver() *AccessoryResolver {
	return sm.resolver
}

func (sm *SystemManager) Attacher() *SocketAttacher {
	return sm.attacher
}

func (sm *SystemManager) Normalizer() *SizeNormalizer {
	return sm.normalizer
}

func (sm *SystemManager) Gradient() *GradientMaterialController {
	return sm.gradient
}

func (sm *SystemManager) Shutdown() error {
	sm.calibrator.Fallback = nil
	sm.gradient.SetTextureSource(nil)
	return nil
}
