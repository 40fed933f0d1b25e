package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Image resource type. */
	ResourceTypeImage ResourceType = iota
	/** @brief Six images forming a cubemap. */
	ResourceTypeCubemap
	/** @brief Shader resource type (or more accurately shader config). */
	ResourceTypeShader
)

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

type ImageResourceParams struct {
	/** @brief Flip rows so the first row is the bottom of the image. */
	FlipY bool
	/** @brief Larger images are downscaled to fit, 0 disables. */
	MaxSize uint32
}

type ImageResourceData struct {
	Width  uint32
	Height uint32
	/** @brief Tightly packed RGBA8 rows. */
	Pixels []uint8
}

type CubemapResourceData struct {
	Width  uint32
	Height uint32
	/** @brief Faces in +X, -X, +Y, -Y, +Z, -Z order. */
	Faces [6][]uint8
}
