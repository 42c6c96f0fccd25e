package feature

import "strconv"

// Feature identifies a feature plugin. Values are stable across releases
// and are never reused for another feature.
type Feature uint32

const (
	FeatureSuperResolution   Feature = 0
	FeatureDenoiser          Feature = 1
	FeatureSharpen           Feature = 2
	FeatureLatency           Feature = 3
	FeatureLatencyStats      Feature = 4
	FeatureFrameGeneration   Feature = 1000
	FeatureRayReconstruction Feature = 1001
	FeatureOverlay           Feature = 9999

	// FeatureCommon is the built-in feature owning shared resources.
	FeatureCommon Feature = 10000
)

var featureNames = map[Feature]string{
	FeatureSuperResolution:   "super_resolution",
	FeatureDenoiser:          "denoiser",
	FeatureSharpen:           "sharpen",
	FeatureLatency:           "latency",
	FeatureLatencyStats:      "latency_stats",
	FeatureFrameGeneration:   "frame_generation",
	FeatureRayReconstruction: "ray_reconstruction",
	FeatureOverlay:           "overlay",
	FeatureCommon:            "common",
}

// String returns the feature name, or "feature_<n>" for unknown ids.
func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "feature_" + strconv.FormatUint(uint64(f), 10)
}
