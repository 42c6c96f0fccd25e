// Package sharpen is a small feature plugin that post-processes the scaling
// input color into the scaling output color.
//
// It uses every part of the plugin surface: options copied into a frame
// slot cache, tagged inputs resolved through the published accessor, state
// transitions declared on the evaluation, and a shared-data export that
// reports the settings in effect for a frame. Importing the package
// registers it under [Name].
//
// The unsharp-mask compute shader in shaders/sharpen.wgsl is compiled at
// startup; when the runtime publishes a HAL device the plugin also creates
// its shader module there and releases it on shutdown.
package sharpen
