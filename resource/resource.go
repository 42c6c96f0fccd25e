// Package resource describes GPU resources handed from the host to feature
// plugins: the resource itself, the tag binding it to a buffer type and a
// viewport, and the lifetime the host promises for it.
//
// The package never owns GPU memory. A Resource wraps native handles the
// host allocated; plugins borrow them for the window their Lifecycle allows.
package resource

import (
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/gogpu/framehost/record"
)

// Type tags and current versions of the records defined here.
var (
	ResourceStructType      = uuid.MustParse("3a9d70d0-10b7-4e3e-a4a1-5b1e3b4c0f01")
	TagStructType           = uuid.MustParse("4c6a5a3e-58e1-4b2f-9e6d-6c2e6f6e2a02")
	PrecisionInfoStructType = uuid.MustParse("98f6e9ba-8d25-4c38-a6b3-5f0f2c7f3c03")
)

const (
	// ResourceVersion is the newest Resource layout this package writes.
	ResourceVersion = 2
	// ResourceVersionUsage introduced Flags, Usage, Format and
	// GPUVirtualAddress.
	ResourceVersionUsage = 2

	// TagVersion is the newest Tag layout.
	TagVersion = 1

	// PrecisionInfoVersion is the newest PrecisionInfo layout.
	PrecisionInfoVersion = 1
)

// API identifies the native graphics API the host runs on.
type API uint8

const (
	APID3D11 API = iota
	APID3D12
	APIVulkan
)

var apiNames = [...]string{
	APID3D11:  "d3d11",
	APID3D12:  "d3d12",
	APIVulkan: "vulkan",
}

// String returns the lower-case API name.
func (a API) String() string {
	if int(a) < len(apiNames) {
		return apiNames[a]
	}
	return "unknown"
}

// ImplicitState reports whether the API tracks resource state itself, so
// hosts need not supply it when tagging.
func (a API) ImplicitState() bool { return a == APID3D11 }

// Native is a native GPU object. hal.Texture, hal.Buffer and
// hal.TextureView all satisfy it; the handle is the object's identity.
type Native interface {
	NativeHandle() uintptr
}

// Kind is the kind of native object a Resource wraps.
type Kind uint8

const (
	KindTex2D Kind = iota
	KindBuffer
	KindCommandQueue
	KindCommandBuffer
	KindCommandPool
	KindFence
	KindSwapchain
	KindHostFence
	KindUnknown
)

var kindNames = [...]string{
	KindTex2D:         "tex2d",
	KindBuffer:        "buffer",
	KindCommandQueue:  "command_queue",
	KindCommandBuffer: "command_buffer",
	KindCommandPool:   "command_pool",
	KindFence:         "fence",
	KindSwapchain:     "swapchain",
	KindHostFence:     "host_fence",
	KindUnknown:       "unknown",
}

// String returns the name of the resource kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Resource wraps a host-owned native GPU object.
type Resource struct {
	record.Header

	Kind Kind

	// Native is the resource itself. A nil Native means "no resource".
	Native Native
	// Memory is the backing allocation on APIs that separate it (Vulkan).
	Memory Native
	// View is an optional image view (Vulkan).
	View Native

	// State is the native access state: D3D12_RESOURCE_STATES flags or a
	// VkImageLayout. Ignored on D3D11.
	State uint32

	Width        uint32
	Height       uint32
	NativeFormat uint32
	MipLevels    uint32
	ArrayLayers  uint32

	// Version 2.

	GPUVirtualAddress uint64
	Flags             uint32
	// Usage holds native usage flags (VkImageUsageFlags).
	Usage uint32
	// Format is the portable format of the resource, if known.
	Format gputypes.TextureFormat
}

// StructType implements record.Typed.
func (Resource) StructType() uuid.UUID { return ResourceStructType }

// NewTexture returns a 2D texture resource at the current version.
func NewTexture(native Native, state, width, height, nativeFormat uint32) *Resource {
	return &Resource{
		Header:       record.NewHeader(ResourceStructType, ResourceVersion),
		Kind:         KindTex2D,
		Native:       native,
		State:        state,
		Width:        width,
		Height:       height,
		NativeFormat: nativeFormat,
		MipLevels:    1,
		ArrayLayers:  1,
	}
}

// NewBuffer returns a buffer resource at the current version.
func NewBuffer(native Native, state, size uint32) *Resource {
	return &Resource{
		Header: record.NewHeader(ResourceStructType, ResourceVersion),
		Kind:   KindBuffer,
		Native: native,
		State:  state,
		Width:  size,
		Height: 1,
	}
}

// IsValid reports whether r wraps a native object.
func (r *Resource) IsValid() bool {
	return r != nil && r.Native != nil
}

// Handle returns the identity of the native object, or zero.
func (r *Resource) Handle() uintptr {
	if !r.IsValid() {
		return 0
	}
	return r.Native.NativeHandle()
}

// PortableFormat returns the portable format of r. The Format field is
// only consulted on version 2 records; older producers are translated from
// NativeFormat.
func (r *Resource) PortableFormat(api API) gputypes.TextureFormat {
	if r.AtLeast(ResourceVersionUsage) && r.Format != gputypes.TextureFormatUndefined {
		return r.Format
	}
	return FormatFromNative(api, r.NativeFormat)
}

// NativeUsage returns the native usage flags when the producer supplied
// them (version 2 and later).
func (r *Resource) NativeUsage() (uint32, bool) {
	if !r.AtLeast(ResourceVersionUsage) {
		return 0, false
	}
	return r.Usage, true
}

// Native format values for the formats translated by FormatFromNative.
const (
	dxgiR8G8B8A8Unorm  = 28
	dxgiD24UnormS8Uint = 45
	dxgiR8Unorm        = 61
	dxgiB8G8R8A8Unorm  = 87

	vkR8Unorm        = 9
	vkR8G8B8A8Unorm  = 37
	vkB8G8R8A8Unorm  = 44
	vkD24UnormS8Uint = 129
)

// FormatFromNative translates a DXGI_FORMAT (D3D11, D3D12) or VkFormat
// value to a portable format. Unknown values map to Undefined.
func FormatFromNative(api API, native uint32) gputypes.TextureFormat {
	if api == APIVulkan {
		switch native {
		case vkR8Unorm:
			return gputypes.TextureFormatR8Unorm
		case vkR8G8B8A8Unorm:
			return gputypes.TextureFormatRGBA8Unorm
		case vkB8G8R8A8Unorm:
			return gputypes.TextureFormatBGRA8Unorm
		case vkD24UnormS8Uint:
			return gputypes.TextureFormatDepth24PlusStencil8
		}
		return gputypes.TextureFormatUndefined
	}
	switch native {
	case dxgiR8Unorm:
		return gputypes.TextureFormatR8Unorm
	case dxgiR8G8B8A8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case dxgiB8G8R8A8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case dxgiD24UnormS8Uint:
		return gputypes.TextureFormatDepth24PlusStencil8
	}
	return gputypes.TextureFormatUndefined
}
