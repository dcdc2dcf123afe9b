package resources

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or unsupported file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Scene graph asset (base model or accessory library). */
	ResourceTypeScene
	/** @brief Texture image used by the gradient material. */
	ResourceTypeTexture
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeScene:
		return "scene"
	case ResourceTypeTexture:
		return "texture"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource file in bytes. */
	DataSize uint64
	/** @brief The resource data, e.g. *scene.Asset or *scene.Texture. */
	Data interface{}
}
