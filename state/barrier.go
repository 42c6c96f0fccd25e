package state

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureUsage returns the WebGPU texture usage closest to s. States
// without a texture usage (vertex, index, present, undefined) map to zero.
func TextureUsage(s ResourceState) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if s&CopySource != 0 || s&ResolveSource != 0 {
		u |= gputypes.TextureUsageCopySrc
	}
	if s&CopyDestination != 0 || s&ResolveDestination != 0 {
		u |= gputypes.TextureUsageCopyDst
	}
	if s&TextureRead != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if s&(StorageRead|StorageWrite) != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if s&(ColorAttachmentRead|ColorAttachmentWrite|DepthStencilAttachmentRead|DepthStencilAttachmentWrite) != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

// Barriers converts transitions of textures into HAL texture barriers.
// Resources that are not hal.Texture, and transitions whose usages are
// equal, are skipped.
func Barriers(ts []Transition) []hal.TextureBarrier {
	var out []hal.TextureBarrier
	for _, tr := range ts {
		tex, ok := tr.Resource.(hal.Texture)
		if !ok {
			continue
		}
		from, to := TextureUsage(tr.From), TextureUsage(tr.To)
		if from == to {
			continue
		}
		out = append(out, hal.TextureBarrier{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: from,
				NewUsage: to,
			},
		})
	}
	return out
}
