package resource

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/gogpu/framehost/record"
)

// BufferType is the semantic meaning of a tagged resource. Values are
// stable across releases and are never reused for another meaning.
type BufferType uint32

const (
	BufferTypeDepth                    BufferType = 0
	BufferTypeMotionVectors            BufferType = 1
	BufferTypeHUDLessColor             BufferType = 2
	BufferTypeScalingInputColor        BufferType = 3
	BufferTypeScalingOutputColor       BufferType = 4
	BufferTypeNormalRoughness          BufferType = 5
	BufferTypeAlbedo                   BufferType = 6
	BufferTypeSpecularAlbedo           BufferType = 7
	BufferTypeIndirectAlbedo           BufferType = 8
	BufferTypeSpecularMotionVectors    BufferType = 9
	BufferTypeDisocclusionMask         BufferType = 10
	BufferTypeEmissive                 BufferType = 11
	BufferTypeExposure                 BufferType = 12
	BufferTypeNormals                  BufferType = 13
	BufferTypeRoughness                BufferType = 14
	BufferTypeDiffuseHitNoisy          BufferType = 15
	BufferTypeDiffuseHitDenoised       BufferType = 16
	BufferTypeSpecularHitNoisy         BufferType = 17
	BufferTypeSpecularHitDenoised      BufferType = 18
	BufferTypeShadowNoisy              BufferType = 19
	BufferTypeShadowDenoised           BufferType = 20
	BufferTypeAmbientOcclusionNoisy    BufferType = 21
	BufferTypeAmbientOcclusionDenoised BufferType = 22
	BufferTypeUIColorAndAlpha          BufferType = 23
	BufferTypeShadowHint               BufferType = 24
	BufferTypeReflectionHint           BufferType = 25
	BufferTypeParticleHint             BufferType = 26
	BufferTypeTransparencyHint         BufferType = 27
	BufferTypeAnimatedTextureHint      BufferType = 28
	BufferTypeBiasCurrentColorHint     BufferType = 29
	BufferTypeRaytracingDistance       BufferType = 30
	BufferTypeReflectionMotionVectors  BufferType = 31
	BufferTypePosition                 BufferType = 32
	BufferTypeInvalidDepthMotionHint   BufferType = 33
	BufferTypeAlpha                    BufferType = 34
	BufferTypeOpaqueColor              BufferType = 35
	BufferTypeReactiveMaskHint         BufferType = 36

	// Values 37 and up.
	BufferTypeTransparencyAndCompositionMaskHint BufferType = 37
	BufferTypeBackbuffer                         BufferType = 53
)

var bufferTypeNames = map[BufferType]string{
	BufferTypeDepth:                    "depth",
	BufferTypeMotionVectors:            "motion_vectors",
	BufferTypeHUDLessColor:             "hudless_color",
	BufferTypeScalingInputColor:        "scaling_input_color",
	BufferTypeScalingOutputColor:       "scaling_output_color",
	BufferTypeNormalRoughness:          "normal_roughness",
	BufferTypeAlbedo:                   "albedo",
	BufferTypeSpecularAlbedo:           "specular_albedo",
	BufferTypeIndirectAlbedo:           "indirect_albedo",
	BufferTypeSpecularMotionVectors:    "specular_motion_vectors",
	BufferTypeDisocclusionMask:         "disocclusion_mask",
	BufferTypeEmissive:                 "emissive",
	BufferTypeExposure:                 "exposure",
	BufferTypeNormals:                  "normals",
	BufferTypeRoughness:                "roughness",
	BufferTypeDiffuseHitNoisy:          "diffuse_hit_noisy",
	BufferTypeDiffuseHitDenoised:       "diffuse_hit_denoised",
	BufferTypeSpecularHitNoisy:         "specular_hit_noisy",
	BufferTypeSpecularHitDenoised:      "specular_hit_denoised",
	BufferTypeShadowNoisy:              "shadow_noisy",
	BufferTypeShadowDenoised:           "shadow_denoised",
	BufferTypeAmbientOcclusionNoisy:    "ambient_occlusion_noisy",
	BufferTypeAmbientOcclusionDenoised: "ambient_occlusion_denoised",
	BufferTypeUIColorAndAlpha:          "ui_color_and_alpha",
	BufferTypeShadowHint:               "shadow_hint",
	BufferTypeReflectionHint:           "reflection_hint",
	BufferTypeParticleHint:             "particle_hint",
	BufferTypeTransparencyHint:         "transparency_hint",
	BufferTypeAnimatedTextureHint:      "animated_texture_hint",
	BufferTypeBiasCurrentColorHint:     "bias_current_color_hint",
	BufferTypeRaytracingDistance:       "raytracing_distance",
	BufferTypeReflectionMotionVectors:  "reflection_motion_vectors",
	BufferTypePosition:                 "position",
	BufferTypeInvalidDepthMotionHint:   "invalid_depth_motion_hint",
	BufferTypeAlpha:                    "alpha",
	BufferTypeOpaqueColor:              "opaque_color",
	BufferTypeReactiveMaskHint:         "reactive_mask_hint",

	BufferTypeTransparencyAndCompositionMaskHint: "transparency_and_composition_mask_hint",
	BufferTypeBackbuffer:                         "backbuffer",
}

// String returns the buffer type name, or "buffer_<n>" for values this
// build does not know.
func (b BufferType) String() string {
	if name, ok := bufferTypeNames[b]; ok {
		return name
	}
	return "buffer_" + strconv.FormatUint(uint64(b), 10)
}

// Lifecycle is how long the host guarantees a tagged resource stays valid.
type Lifecycle uint8

const (
	// OnlyValidNow resources may be reused by the host right after the
	// tagging call returns.
	OnlyValidNow Lifecycle = iota
	// ValidUntilPresent resources stay valid until the frame is presented.
	ValidUntilPresent
	// ValidUntilEvaluate resources stay valid until the evaluate call
	// they were passed to returns.
	ValidUntilEvaluate
)

var lifecycleNames = [...]string{
	OnlyValidNow:       "only_valid_now",
	ValidUntilPresent:  "valid_until_present",
	ValidUntilEvaluate: "valid_until_evaluate",
}

// String returns the lifecycle name.
func (l Lifecycle) String() string {
	if int(l) < len(lifecycleNames) {
		return lifecycleNames[l]
	}
	return "unknown"
}

// FrameBound reports whether a resource with this lifecycle may only be
// used during the frame it was tagged for.
func (l Lifecycle) FrameBound() bool {
	return l != ValidUntilPresent
}

// Extent is a sub-rectangle of a resource. The zero Extent means the
// entire resource.
type Extent struct {
	Top    uint32
	Left   uint32
	Width  uint32
	Height uint32
}

// IsZero reports whether e selects the entire resource.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Resolve returns e, or the full width x height rectangle when e is zero.
func (e Extent) Resolve(width, height uint32) Extent {
	if e.IsZero() {
		return Extent{Width: width, Height: height}
	}
	return e
}

// Within reports whether e fits inside a width x height resource.
func (e Extent) Within(width, height uint32) bool {
	if e.IsZero() {
		return true
	}
	return uint64(e.Left)+uint64(e.Width) <= uint64(width) &&
		uint64(e.Top)+uint64(e.Height) <= uint64(height)
}

// Tag binds a resource to a buffer type. The viewport comes from the call
// the tag is passed to.
type Tag struct {
	record.Header

	// Resource is borrowed. A nil Resource, or one without a Native
	// object, removes the tag.
	Resource  *Resource
	Buffer    BufferType
	Lifecycle Lifecycle
	Extent    Extent
}

// StructType implements record.Typed.
func (Tag) StructType() uuid.UUID { return TagStructType }

// NewTag returns a tag at the current version.
func NewTag(buffer BufferType, r *Resource, lifecycle Lifecycle) *Tag {
	return &Tag{
		Header:    record.NewHeader(TagStructType, TagVersion),
		Resource:  r,
		Buffer:    buffer,
		Lifecycle: lifecycle,
	}
}

// WithExtent sets the extent and returns t.
func (t *Tag) WithExtent(e Extent) *Tag {
	t.Extent = e
	return t
}

// Removes reports whether t clears its buffer type instead of setting it.
func (t *Tag) Removes() bool {
	return !t.Resource.IsValid()
}

// PrecisionFormula is how stored values convert back to full precision.
type PrecisionFormula uint8

const (
	PrecisionNone PrecisionFormula = iota
	// PrecisionLinear means value = stored*Scale + Bias.
	PrecisionLinear
)

// PrecisionInfo is chained onto a Tag when the tagged data was stored at
// reduced precision.
type PrecisionInfo struct {
	record.Header

	Formula PrecisionFormula
	Bias    float32
	Scale   float32
}

// StructType implements record.Typed.
func (PrecisionInfo) StructType() uuid.UUID { return PrecisionInfoStructType }

// NewPrecisionInfo returns a precision record at the current version.
func NewPrecisionInfo(formula PrecisionFormula, scale, bias float32) *PrecisionInfo {
	return &PrecisionInfo{
		Header:  record.NewHeader(PrecisionInfoStructType, PrecisionInfoVersion),
		Formula: formula,
		Scale:   scale,
		Bias:    bias,
	}
}

// Decode converts a stored value to full precision.
func (p *PrecisionInfo) Decode(v float32) float32 {
	if p == nil || p.Formula != PrecisionLinear {
		return v
	}
	return v*p.Scale + p.Bias
}
