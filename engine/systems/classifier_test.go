package systems

import (
	"testing"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name, material string) *scene.Node {
	n := scene.NewNode(name)
	if material != "" {
		n.Material = scene.NewMaterial(material, math.NewVec4One())
	}
	return n
}

func TestClassifyDefaultRules(t *testing.T) {
	c, err := NewNodeClassifier(config.Default())
	require.NoError(t, err)

	tests := []struct {
		name     string
		material string
		want     Role
	}{
		{name: "body", want: Role{Kind: RoleGeneric}},
		{name: "socket_tail_m", want: Role{Kind: RoleSocket, Variant: "tail_m"}},
		{name: "Socket_Belly", want: Role{Kind: RoleSocket, Variant: "belly"}},
		{name: "Eye_White_L", want: Role{Kind: RoleEyeWhite}},
		{name: "white_left", want: Role{Kind: RoleEyeWhite}},
		{name: "left_sclera", want: Role{Kind: RoleEyeWhite}},
		{name: "eye_pupil_l", want: Role{Kind: RoleEyePupil}},
		{name: "EyeIris", want: Role{Kind: RoleEyeIris}},
		{name: "mask_clear", want: Role{Kind: RoleMask, Variant: "clear"}},
		{name: "Runner-Wide", want: Role{Kind: RoleRunner, Variant: "wide"}},
		{name: "collection_2024", want: Role{Kind: RoleCollection, Variant: "2024"}},
		{name: "col_spring", want: Role{Kind: RoleCollection, Variant: "spring"}},
		{name: "lip_plate", material: "chrome_foil", want: Role{Kind: RolePaletteMetal}},
		{name: "belly_plate", material: "Metal", want: Role{Kind: RolePaletteMetal}},
		{name: "treble_front", want: Role{Kind: RoleAccessoryHook}},
		{name: "hook_4_shank", material: "steel", want: Role{Kind: RoleAccessoryHook}},
		{name: "calibration_reference", want: Role{Kind: RoleReferenceOnly}},
		{name: "ruler_socket", want: Role{Kind: RoleReferenceOnly}},
		{name: "body", material: "paint", want: Role{Kind: RoleGeneric}},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.material, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(named(tt.name, tt.material)))
		})
	}

	assert.Equal(t, Role{Kind: RoleGeneric}, c.Classify(nil))
	assert.True(t, c.IsReference(named("Reference_M", "")))
	assert.False(t, c.IsReference(named("body", "")))
}

func TestClassifyIsPure(t *testing.T) {
	c, err := NewNodeClassifier(config.Default())
	require.NoError(t, err)
	n := named("mask_clear", "mask")
	n.Visible = false

	first := c.Classify(n)
	assert.Equal(t, first, c.Classify(n))
	assert.False(t, n.Visible)
	assert.Equal(t, "mask_clear", n.Name)
}

func TestConfiguredRulesReplaceDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Rules = []config.RuleConfig{
		{Role: "mask", Match: "contains", Pattern: "skin"},
		{Role: "palette_metal", Field: "material", Match: "exact", Pattern: "gold"},
		{Role: "runner", Pattern: "lip", Kind: "fixed"},
	}
	c, err := NewNodeClassifier(cfg)
	require.NoError(t, err)

	assert.Equal(t, Role{Kind: RoleMask, Variant: "red"}, c.Classify(named("body_skin_red", "")))
	assert.Equal(t, Role{Kind: RoleGeneric}, c.Classify(named("mask_clear", "")))
	assert.Equal(t, Role{Kind: RolePaletteMetal}, c.Classify(named("plate", "Gold")))
	assert.Equal(t, Role{Kind: RoleGeneric}, c.Classify(named("plate", "golden")))
	assert.Equal(t, Role{Kind: RoleRunner, Variant: "fixed"}, c.Classify(named("lip_long", "")))
	assert.Equal(t, Role{Kind: RoleReferenceOnly}, c.Classify(named("skin_reference", "")))

	rules := c.Rules()
	require.Len(t, rules, 6)
	assert.Equal(t, RoleReferenceOnly, rules[0].Role)
}

func TestInvalidConfiguredRules(t *testing.T) {
	tests := []struct {
		name string
		rule config.RuleConfig
		want string
	}{
		{name: "unknown role", rule: config.RuleConfig{Role: "fin", Pattern: "fin"}, want: "unknown role"},
		{name: "empty pattern", rule: config.RuleConfig{Role: "mask"}, want: "empty pattern"},
		{name: "unknown field", rule: config.RuleConfig{Role: "mask", Field: "uv", Pattern: "m"}, want: "unknown field"},
		{name: "unknown match", rule: config.RuleConfig{Role: "mask", Match: "regex", Pattern: "m"}, want: "unknown match mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Classifier.Rules = []config.RuleConfig{tt.rule}
			_, err := NewNodeClassifier(cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRoleKindNames(t *testing.T) {
	for kind, name := range roleNames {
		parsed, err := ParseRoleKind(" " + name + " ")
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
		assert.Equal(t, name, kind.String())
	}
	assert.Equal(t, "unknown", RoleKind(200).String())
	assert.Equal(t, "mask(clear)", Role{Kind: RoleMask, Variant: "clear"}.String())
	assert.True(t, RoleSocket.Variant())
	assert.False(t, RoleEyeIris.Variant())
}
