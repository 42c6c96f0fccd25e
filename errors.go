package framehost

import (
	"context"
	"errors"

	"github.com/gogpu/framehost/backend"
	"github.com/gogpu/framehost/config"
	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/record"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

var (
	// ErrClosed is returned by every call on a closed Runtime.
	ErrClosed = errors.New("framehost: runtime closed")

	// ErrInvalidFrameToken is returned for a token not minted by this
	// Runtime's NewFrameToken.
	ErrInvalidFrameToken = errors.New("framehost: invalid frame token")

	// ErrConflictingData is returned in strict mode when different data is
	// set twice for one frame and viewport.
	ErrConflictingData = errors.New("framehost: conflicting data for frame")

	// ErrPluginNotFound is returned when no plugin is registered under a
	// name.
	ErrPluginNotFound = errors.New("framehost: plugin not registered")

	// ErrFeatureLoaded is returned when loading a plugin for a feature
	// that already has one.
	ErrFeatureLoaded = errors.New("framehost: feature already loaded")

	// ErrNotSupported is returned when a loaded plugin does not export the
	// function a call needs.
	ErrNotSupported = errors.New("framehost: not supported by feature")
)

// Result is a stable numeric code for an error, for hosts that report
// codes rather than errors.
type Result int

const (
	ResultOK Result = iota
	ResultUnknown
	ResultCanceled
	ResultInvalidConfig
	ResultNotInitialized
	ResultInvalidFrameToken
	ResultConflictingData
	ResultMissingParameter
	ResultInvalidParameter
	ResultMissingInput
	ResultExpiredInput
	ResultInvalidInput
	ResultMissingState
	ResultInvalidResource
	ResultMissingConstants
	ResultFeatureMissing
	ResultFeatureLoaded
	ResultNotSupported
	ResultInvalidState
	ResultPluginNotFound
	ResultPluginIncompatible
	ResultBackendUnavailable
	ResultInvalidRecord
)

var resultNames = [...]string{
	ResultOK:                 "ok",
	ResultUnknown:            "unknown",
	ResultCanceled:           "canceled",
	ResultInvalidConfig:      "invalid_config",
	ResultNotInitialized:     "not_initialized",
	ResultInvalidFrameToken:  "invalid_frame_token",
	ResultConflictingData:    "conflicting_data",
	ResultMissingParameter:   "missing_parameter",
	ResultInvalidParameter:   "invalid_parameter",
	ResultMissingInput:       "missing_input",
	ResultExpiredInput:       "expired_input",
	ResultInvalidInput:       "invalid_input",
	ResultMissingState:       "missing_state",
	ResultInvalidResource:    "invalid_resource",
	ResultMissingConstants:   "missing_constants",
	ResultFeatureMissing:     "feature_missing",
	ResultFeatureLoaded:      "feature_loaded",
	ResultNotSupported:       "not_supported",
	ResultInvalidState:       "invalid_state",
	ResultPluginNotFound:     "plugin_not_found",
	ResultPluginIncompatible: "plugin_incompatible",
	ResultBackendUnavailable: "backend_unavailable",
	ResultInvalidRecord:      "invalid_record",
}

// String returns the result name.
func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "unknown"
}

// resultTable is checked in order; the first sentinel err wraps wins.
var resultTable = []struct {
	err    error
	result Result
}{
	{context.Canceled, ResultCanceled},
	{context.DeadlineExceeded, ResultCanceled},
	{ErrClosed, ResultNotInitialized},
	{ErrInvalidFrameToken, ResultInvalidFrameToken},
	{ErrConflictingData, ResultConflictingData},
	{ErrPluginNotFound, ResultPluginNotFound},
	{ErrFeatureLoaded, ResultFeatureLoaded},
	{ErrNotSupported, ResultNotSupported},
	{config.ErrInvalid, ResultInvalidConfig},
	{feature.ErrFeatureMissing, ResultFeatureMissing},
	{feature.ErrIncompatible, ResultPluginIncompatible},
	{feature.ErrInvalidManifest, ResultPluginIncompatible},
	{feature.ErrDispatchInFlight, ResultInvalidState},
	{feature.ErrIncompleteCallbacks, ResultInvalidParameter},
	{feature.ErrNoTracker, ResultNotSupported},
	{feature.ErrMissingConstants, ResultMissingConstants},
	{resource.ErrMissingInput, ResultMissingInput},
	{resource.ErrTagExpired, ResultExpiredInput},
	{resource.ErrMissingState, ResultMissingState},
	{resource.ErrExtentOutOfBounds, ResultInvalidInput},
	{state.ErrNilResource, ResultInvalidResource},
	{state.ErrUnknownState, ResultMissingState},
	{params.ErrNotFound, ResultMissingParameter},
	{params.ErrTypeMismatch, ResultInvalidParameter},
	{backend.ErrBackendNotAvailable, ResultBackendUnavailable},
	{backend.ErrNotInitialized, ResultNotInitialized},
	{backend.ErrUnsupportedCommandList, ResultInvalidParameter},
	{record.ErrShortHeader, ResultInvalidRecord},
}

// ResultOf maps err to its Result. A nil err is ResultOK; an error that
// wraps none of the package sentinels is ResultUnknown.
func ResultOf(err error) Result {
	if err == nil {
		return ResultOK
	}
	for _, e := range resultTable {
		if errors.Is(err, e.err) {
			return e.result
		}
	}
	return ResultUnknown
}
