package state

import (
	"testing"

	"github.com/gogpu/framehost/resource"
)

func TestFromNativeD3D12(t *testing.T) {
	tests := []struct {
		native uint32
		want   ResourceState
	}{
		{d3d12Common, General},
		{d3d12RenderTarget, ColorAttachmentRead | ColorAttachmentWrite},
		{d3d12PixelShader, TextureRead},
		{d3d12NonPixelShader | d3d12PixelShader, TextureRead},
		{d3d12DepthRead, DepthStencilAttachmentRead},
		{d3d12DepthWrite, DepthStencilAttachmentRead | DepthStencilAttachmentWrite},
		{d3d12UnorderedAccess, StorageRead | StorageWrite},
		{d3d12CopySource | d3d12PixelShader, CopySource | TextureRead},
		{d3d12GenericRead, GenericRead},
		{0x100, General},
		{0x1000000, General},
		{d3d12PixelShader | 0x100, TextureRead | General},
	}
	for _, tt := range tests {
		if got := FromNative(resource.APID3D12, tt.native); got != tt.want {
			t.Errorf("FromNative(d3d12, %#x) = %v, want %v", tt.native, got, tt.want)
		}
	}
}

func TestFromNativeVulkan(t *testing.T) {
	tests := []struct {
		layout uint32
		want   ResourceState
	}{
		{vkLayoutUndefined, Undefined},
		{vkLayoutPreinitialized, Undefined},
		{vkLayoutGeneral, General},
		{vkLayoutShaderReadOnly, TextureRead},
		{vkLayoutTransferDst, CopyDestination},
		{vkLayoutPresentSrc, Present},
		{12345, Undefined},
	}
	for _, tt := range tests {
		if got := FromNative(resource.APIVulkan, tt.layout); got != tt.want {
			t.Errorf("FromNative(vulkan, %d) = %v, want %v", tt.layout, got, tt.want)
		}
	}
}

func TestFromNativeD3D11Implicit(t *testing.T) {
	if got := FromNative(resource.APID3D11, 0x1234); got != General {
		t.Errorf("FromNative(d3d11) = %v, want general", got)
	}
	if got := ToNative(resource.APID3D11, TextureRead); got != 0 {
		t.Errorf("ToNative(d3d11) = %d, want 0", got)
	}
}

func TestRoundTrip(t *testing.T) {
	canonical := []ResourceState{
		General,
		TextureRead,
		CopySource,
		CopyDestination,
		ColorAttachmentRead | ColorAttachmentWrite,
		DepthStencilAttachmentRead,
		DepthStencilAttachmentRead | DepthStencilAttachmentWrite,
	}
	d3d12Only := []ResourceState{
		StorageRead | StorageWrite,
		GenericRead,
		ResolveSource,
		ResolveDestination,
		AccelStructRead | AccelStructWrite,
		CopySource | TextureRead,
	}
	vulkanOnly := []ResourceState{Undefined, Present}

	for _, api := range []resource.API{resource.APID3D12, resource.APIVulkan} {
		states := append([]ResourceState(nil), canonical...)
		if api == resource.APID3D12 {
			states = append(states, d3d12Only...)
		} else {
			states = append(states, vulkanOnly...)
		}
		for _, s := range states {
			if got := FromNative(api, ToNative(api, s)); got != s {
				t.Errorf("%v: FromNative(ToNative(%v)) = %v", api, s, got)
			}
		}
	}
}

func TestToVulkanPicksGeneralForMixedStates(t *testing.T) {
	if got := ToNative(resource.APIVulkan, TextureRead|CopyDestination); got != vkLayoutGeneral {
		t.Errorf("mixed state layout = %d, want GENERAL", got)
	}
	if got := ToNative(resource.APIVulkan, StorageWrite); got != vkLayoutGeneral {
		t.Errorf("storage layout = %d, want GENERAL", got)
	}
}

func TestResourceStateString(t *testing.T) {
	tests := []struct {
		s    ResourceState
		want string
	}{
		{Undefined, "undefined"},
		{TextureRead, "texture_read"},
		{CopySource | TextureRead, "texture_read|copy_source"},
		{1 << 30, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", uint32(tt.s), got, tt.want)
		}
	}
}

func TestResourceStateHasWrites(t *testing.T) {
	if !GenericRead.Has(TextureRead) || GenericRead.Has(TextureRead|StorageWrite) {
		t.Error("Has")
	}
	if Undefined.Has(Undefined) {
		t.Error("Has(Undefined) should be false")
	}
	if GenericRead.Writes() || !(TextureRead | CopyDestination).Writes() {
		t.Error("Writes")
	}
}
