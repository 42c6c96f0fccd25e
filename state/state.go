package state

import (
	"math/bits"
	"strings"

	"github.com/gogpu/framehost/resource"
)

// ResourceState is a set of access states.
type ResourceState uint32

// Undefined means the contents are unknown and may be discarded.
const Undefined ResourceState = 0

const (
	General ResourceState = 1 << iota
	VertexBuffer
	IndexBuffer
	ConstantBuffer
	ArgumentBuffer
	TextureRead
	StorageRead
	StorageWrite
	ColorAttachmentRead
	ColorAttachmentWrite
	DepthStencilAttachmentRead
	DepthStencilAttachmentWrite
	CopySource
	CopyDestination
	AccelStructRead
	AccelStructWrite
	ResolveSource
	ResolveDestination
	Present
)

// GenericRead is the union of read-only states a D3D12 upload heap starts in.
const GenericRead = VertexBuffer | IndexBuffer | ConstantBuffer | ArgumentBuffer | TextureRead | CopySource

const (
	writeStates = StorageWrite | ColorAttachmentWrite | DepthStencilAttachmentWrite |
		CopyDestination | AccelStructWrite | ResolveDestination
)

var stateNames = [...]string{
	"general",
	"vertex_buffer",
	"index_buffer",
	"constant_buffer",
	"argument_buffer",
	"texture_read",
	"storage_read",
	"storage_write",
	"color_attachment_read",
	"color_attachment_write",
	"depth_stencil_attachment_read",
	"depth_stencil_attachment_write",
	"copy_source",
	"copy_destination",
	"accel_struct_read",
	"accel_struct_write",
	"resolve_source",
	"resolve_destination",
	"present",
}

// String returns the set members joined by "|".
func (s ResourceState) String() string {
	if s == Undefined {
		return "undefined"
	}
	var b strings.Builder
	for v := uint32(s); v != 0; v &= v - 1 {
		i := bits.TrailingZeros32(v)
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		if i < len(stateNames) {
			b.WriteString(stateNames[i])
		} else {
			b.WriteString("unknown")
		}
	}
	return b.String()
}

// Has reports whether every state in x is in s.
func (s ResourceState) Has(x ResourceState) bool {
	return x != 0 && s&x == x
}

// Writes reports whether s includes a write access.
func (s ResourceState) Writes() bool {
	return s&writeStates != 0
}

// D3D12_RESOURCE_STATES values.
const (
	d3d12Common             = 0
	d3d12VertexAndConstant  = 0x1
	d3d12Index              = 0x2
	d3d12RenderTarget       = 0x4
	d3d12UnorderedAccess    = 0x8
	d3d12DepthWrite         = 0x10
	d3d12DepthRead          = 0x20
	d3d12NonPixelShader     = 0x40
	d3d12PixelShader        = 0x80
	d3d12IndirectArgument   = 0x200
	d3d12CopyDest           = 0x400
	d3d12CopySource         = 0x800
	d3d12ResolveDest        = 0x1000
	d3d12ResolveSource      = 0x2000
	d3d12AccelerationStruct = 0x400000
	d3d12GenericRead        = 0xAC3

	d3d12ShaderResource = d3d12NonPixelShader | d3d12PixelShader
)

// VkImageLayout values.
const (
	vkLayoutUndefined              = 0
	vkLayoutGeneral                = 1
	vkLayoutColorAttachment        = 2
	vkLayoutDepthStencilAttachment = 3
	vkLayoutDepthStencilReadOnly   = 4
	vkLayoutShaderReadOnly         = 5
	vkLayoutTransferSrc            = 6
	vkLayoutTransferDst            = 7
	vkLayoutPreinitialized         = 8
	vkLayoutPresentSrc             = 1000001002
)

var d3d12Bits = []struct {
	native uint32
	state  ResourceState
}{
	{d3d12VertexAndConstant, VertexBuffer | ConstantBuffer},
	{d3d12Index, IndexBuffer},
	{d3d12RenderTarget, ColorAttachmentRead | ColorAttachmentWrite},
	{d3d12UnorderedAccess, StorageRead | StorageWrite},
	{d3d12DepthWrite, DepthStencilAttachmentRead | DepthStencilAttachmentWrite},
	{d3d12DepthRead, DepthStencilAttachmentRead},
	{d3d12NonPixelShader, TextureRead},
	{d3d12PixelShader, TextureRead},
	{d3d12IndirectArgument, ArgumentBuffer},
	{d3d12CopyDest, CopyDestination},
	{d3d12CopySource, CopySource},
	{d3d12ResolveDest, ResolveDestination},
	{d3d12ResolveSource, ResolveSource},
	{d3d12AccelerationStruct, AccelStructRead | AccelStructWrite},
}

// FromNative translates a native state to a ResourceState. D3D11 has no
// explicit state and always yields General.
func FromNative(api resource.API, native uint32) ResourceState {
	switch api {
	case resource.APID3D12:
		if native == d3d12Common {
			return General
		}
		var s ResourceState
		var known uint32
		for _, b := range d3d12Bits {
			known |= b.native
			if native&b.native != 0 {
				s |= b.state
			}
		}
		// Unmapped bits (stream out, shading rate source, ...) still mean
		// the contents are live.
		if native&^known != 0 {
			s |= General
		}
		return s
	case resource.APIVulkan:
		switch native {
		case vkLayoutGeneral:
			return General
		case vkLayoutColorAttachment:
			return ColorAttachmentRead | ColorAttachmentWrite
		case vkLayoutDepthStencilAttachment:
			return DepthStencilAttachmentRead | DepthStencilAttachmentWrite
		case vkLayoutDepthStencilReadOnly:
			return DepthStencilAttachmentRead
		case vkLayoutShaderReadOnly:
			return TextureRead
		case vkLayoutTransferSrc:
			return CopySource
		case vkLayoutTransferDst:
			return CopyDestination
		case vkLayoutPresentSrc:
			return Present
		}
		// UNDEFINED, PREINITIALIZED and unknown layouts carry no usable contents.
		return Undefined
	}
	return General
}

// ToNative translates s to the native representation of api.
//
// D3D12 states are a bit set and translate member by member. A Vulkan image
// is in exactly one layout, so the most specific layout covering s is
// chosen and GENERAL when no single layout does.
func ToNative(api resource.API, s ResourceState) uint32 {
	switch api {
	case resource.APID3D12:
		return toD3D12(s)
	case resource.APIVulkan:
		return toVulkan(s)
	}
	return 0
}

func toD3D12(s ResourceState) uint32 {
	if s == Undefined || s.Has(General) || s.Has(Present) {
		return d3d12Common
	}
	var n uint32
	if s&(VertexBuffer|ConstantBuffer) != 0 {
		n |= d3d12VertexAndConstant
	}
	if s.Has(IndexBuffer) {
		n |= d3d12Index
	}
	if s&(ColorAttachmentRead|ColorAttachmentWrite) != 0 {
		n |= d3d12RenderTarget
	}
	if s&(StorageRead|StorageWrite) != 0 {
		n |= d3d12UnorderedAccess
	}
	switch {
	case s.Has(DepthStencilAttachmentWrite):
		n |= d3d12DepthWrite
	case s.Has(DepthStencilAttachmentRead):
		n |= d3d12DepthRead
	}
	if s.Has(TextureRead) {
		n |= d3d12ShaderResource
	}
	if s.Has(ArgumentBuffer) {
		n |= d3d12IndirectArgument
	}
	if s.Has(CopyDestination) {
		n |= d3d12CopyDest
	}
	if s.Has(CopySource) {
		n |= d3d12CopySource
	}
	if s.Has(ResolveDestination) {
		n |= d3d12ResolveDest
	}
	if s.Has(ResolveSource) {
		n |= d3d12ResolveSource
	}
	if s&(AccelStructRead|AccelStructWrite) != 0 {
		n |= d3d12AccelerationStruct
	}
	return n
}

func toVulkan(s ResourceState) uint32 {
	switch {
	case s == Undefined:
		return vkLayoutUndefined
	case s == Present:
		return vkLayoutPresentSrc
	case s&^(ColorAttachmentRead|ColorAttachmentWrite) == 0:
		return vkLayoutColorAttachment
	case s == DepthStencilAttachmentRead:
		return vkLayoutDepthStencilReadOnly
	case s&^(DepthStencilAttachmentRead|DepthStencilAttachmentWrite) == 0:
		return vkLayoutDepthStencilAttachment
	case s == TextureRead:
		return vkLayoutShaderReadOnly
	case s == CopySource:
		return vkLayoutTransferSrc
	case s == CopyDestination:
		return vkLayoutTransferDst
	}
	return vkLayoutGeneral
}
