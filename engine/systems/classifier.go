package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// RoleKind is the semantic category of a scene node.
type RoleKind uint8

const (
	RoleGeneric RoleKind = iota
	RoleReferenceOnly
	RoleSocket
	RoleEyeWhite
	RoleEyePupil
	RoleEyeIris
	RoleMask
	RoleRunner
	RoleCollection
	RolePaletteMetal
	RoleAccessoryHook
)

var roleNames = map[RoleKind]string{
	RoleGeneric:       "generic",
	RoleReferenceOnly: "reference",
	RoleSocket:        "socket",
	RoleEyeWhite:      "eye_white",
	RoleEyePupil:      "eye_pupil",
	RoleEyeIris:       "eye_iris",
	RoleMask:          "mask",
	RoleRunner:        "runner",
	RoleCollection:    "collection",
	RolePaletteMetal:  "palette_metal",
	RoleAccessoryHook: "accessory_hook",
}

func (k RoleKind) String() string {
	if s, ok := roleNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseRoleKind is the inverse of RoleKind.String.
func ParseRoleKind(s string) (RoleKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range roleNames {
		if name == s {
			return k, nil
		}
	}
	return RoleGeneric, fmt.Errorf("unknown role %q", s)
}

// Variant reports whether nodes of this kind form mutually exclusive groups.
func (k RoleKind) Variant() bool {
	switch k {
	case RoleMask, RoleRunner, RoleCollection, RoleSocket:
		return true
	}
	return false
}

// Role is the classification of one node. Kind carries the variant label for
// variant roles, e.g. "clear" for a node named "mask_clear".
type Role struct {
	Kind    RoleKind
	Variant string
}

func (r Role) String() string {
	if r.Variant == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + "(" + r.Variant + ")"
}

// MatchField selects the string a rule is evaluated against.
type MatchField uint8

const (
	FieldName MatchField = iota
	FieldMaterial
)

// MatchMode is how a rule pattern is compared.
type MatchMode uint8

const (
	MatchPrefix MatchMode = iota
	MatchContains
	MatchExact
)

// Rule is one row of the classification table.
type Rule struct {
	Role    RoleKind
	Field   MatchField
	Mode    MatchMode
	Pattern string
	// Kind fixes the variant label; empty derives it from the text after Pattern.
	Kind string
}

// DefaultRules is the built-in table in precedence order. Reference tokens
// are prepended from the calibration configuration.
var DefaultRules = []Rule{
	{Role: RoleSocket, Field: FieldName, Mode: MatchPrefix, Pattern: "socket"},
	{Role: RoleEyeWhite, Field: FieldName, Mode: MatchPrefix, Pattern: "eye_white"},
	{Role: RoleEyeWhite, Field: FieldName, Mode: MatchPrefix, Pattern: "white_"},
	{Role: RoleEyeWhite, Field: FieldName, Mode: MatchContains, Pattern: "sclera"},
	{Role: RoleEyePupil, Field: FieldName, Mode: MatchContains, Pattern: "pupil"},
	{Role: RoleEyeIris, Field: FieldName, Mode: MatchContains, Pattern: "iris"},
	{Role: RoleMask, Field: FieldName, Mode: MatchPrefix, Pattern: "mask"},
	{Role: RoleRunner, Field: FieldName, Mode: MatchPrefix, Pattern: "runner"},
	{Role: RoleCollection, Field: FieldName, Mode: MatchPrefix, Pattern: "collection"},
	{Role: RoleCollection, Field: FieldName, Mode: MatchPrefix, Pattern: "col_"},
	{Role: RolePaletteMetal, Field: FieldMaterial, Mode: MatchContains, Pattern: "metal"},
	{Role: RolePaletteMetal, Field: FieldMaterial, Mode: MatchContains, Pattern: "chrome"},
	{Role: RolePaletteMetal, Field: FieldMaterial, Mode: MatchContains, Pattern: "foil"},
	{Role: RoleAccessoryHook, Field: FieldName, Mode: MatchContains, Pattern: "treble"},
	{Role: RoleAccessoryHook, Field: FieldName, Mode: MatchContains, Pattern: "hook"},
}

// NodeClassifier tags nodes with roles from a fixed rule table. The first
// matching rule wins; nodes matching nothing are generic. Classification has
// no side effects and is recomputed on every pass.
type NodeClassifier struct {
	rules []Rule
}

// NewNodeClassifier builds the rule table from cfg. Configured rules replace
// the built-in table; reference tokens always take precedence.
func NewNodeClassifier(cfg *config.Config) (*NodeClassifier, error) {
	var rules []Rule
	for _, token := range cfg.Calibration.ReferenceTokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		rules = append(rules, Rule{Role: RoleReferenceOnly, Field: FieldName, Mode: MatchContains, Pattern: token})
	}
	if len(cfg.Classifier.Rules) == 0 {
		rules = append(rules, DefaultRules...)
		return &NodeClassifier{rules: rules}, nil
	}
	for i, rc := range cfg.Classifier.Rules {
		r, err := ruleFromConfig(rc)
		if err != nil {
			return nil, fmt.Errorf("classifier rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return &NodeClassifier{rules: rules}, nil
}

func ruleFromConfig(rc config.RuleConfig) (Rule, error) {
	kind, err := ParseRoleKind(rc.Role)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{Role: kind, Pattern: strings.ToLower(rc.Pattern), Kind: rc.Kind}
	if r.Pattern == "" {
		return Rule{}, fmt.Errorf("empty pattern")
	}
	switch strings.ToLower(rc.Field) {
	case "", "name":
		r.Field = FieldName
	case "material":
		r.Field = FieldMaterial
	default:
		return Rule{}, fmt.Errorf("unknown field %q", rc.Field)
	}
	switch strings.ToLower(rc.Match) {
	case "", "prefix":
		r.Mode = MatchPrefix
	case "contains":
		r.Mode = MatchContains
	case "exact":
		r.Mode = MatchExact
	default:
		return Rule{}, fmt.Errorf("unknown match mode %q", rc.Match)
	}
	return r, nil
}

// Rules returns a copy of the active table.
func (c *NodeClassifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the role of n.
func (c *NodeClassifier) Classify(n *scene.Node) Role {
	if n == nil {
		return Role{Kind: RoleGeneric}
	}
	name := strings.ToLower(n.Name)
	material := ""
	if n.Material != nil {
		material = strings.ToLower(n.Material.Name)
	}
	for _, r := range c.rules {
		subject := name
		if r.Field == FieldMaterial {
			subject = material
		}
		if subject == "" {
			continue
		}
		if rest, ok := r.match(subject); ok {
			role := Role{Kind: r.Role}
			if r.Role.Variant() {
				role.Variant = r.Kind
				if role.Variant == "" {
					role.Variant = rest
				}
			}
			return role
		}
	}
	return Role{Kind: RoleGeneric}
}

// match reports whether subject satisfies the rule and returns the text
// following the pattern, stripped of separators.
func (r Rule) match(subject string) (string, bool) {
	switch r.Mode {
	case MatchExact:
		return "", subject == r.Pattern
	case MatchContains:
		i := strings.Index(subject, r.Pattern)
		if i < 0 {
			return "", false
		}
		return trimSeparators(subject[i+len(r.Pattern):]), true
	default:
		if !strings.HasPrefix(subject, r.Pattern) {
			return "", false
		}
		return trimSeparators(subject[len(r.Pattern):]), true
	}
}

func trimSeparators(s string) string {
	return strings.Trim(s, "_-. ")
}

// IsReference reports whether n is calibration-only geometry.
func (c *NodeClassifier) IsReference(n *scene.Node) bool {
	return c.Classify(n).Kind == RoleReferenceOnly
}
