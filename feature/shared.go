package feature

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/record"
)

// SharedDataStatus is the result of a SharedDataFunc.
type SharedDataStatus uint8

const (
	SharedDataOK SharedDataStatus = iota
	SharedDataInvalidRequestedData
	SharedDataInvalidRequesterInfo
)

var sharedDataStatusNames = [...]string{
	SharedDataOK:                   "ok",
	SharedDataInvalidRequestedData: "invalid_requested_data",
	SharedDataInvalidRequesterInfo: "invalid_requester_info",
}

// String returns the status name.
func (s SharedDataStatus) String() string {
	if int(s) < len(sharedDataStatusNames) {
		return sharedDataStatusNames[s]
	}
	return "unknown"
}

// SharedDataFunc hands data owned by one plugin to another.
//
// The callee checks requested.Base().Version and fills only the fields the
// caller's version has room for. requester describes the calling plugin
// and must not be modified.
type SharedDataFunc func(requested record.Record, requester record.Record) SharedDataStatus

// SharedDataKey is the parameter key under which f publishes its
// SharedDataFunc.
func SharedDataKey(f Feature) string {
	return params.FeatureKey(uint32(f), ExportGetSharedData)
}

// PublishSharedData stores fn under the shared-data key of f.
func PublishSharedData(s *params.Store, f Feature, fn SharedDataFunc) {
	s.Set(SharedDataKey(f), fn)
}

// GetSharedData asks the plugin owning f for data. A feature that is not
// loaded yields a params.ErrNotFound error.
func GetSharedData(s *params.Store, f Feature, requested, requester record.Record) (SharedDataStatus, error) {
	fn, err := params.Lookup[SharedDataFunc](s, SharedDataKey(f))
	if err != nil {
		return SharedDataInvalidRequestedData, fmt.Errorf("feature: shared data of %s: %w", f, err)
	}
	return fn(requested, requester), nil
}

// CheckSharedDataRequest validates the records of a shared-data call on
// the callee side: requested must be a record of type want; requester, if
// given, must not be a typed nil.
func CheckSharedDataRequest(requested, requester record.Record, want uuid.UUID) SharedDataStatus {
	if requested == nil || record.FindType(requested, want) != requested {
		return SharedDataInvalidRequestedData
	}
	if requester != nil && record.Len(requester) == 0 {
		return SharedDataInvalidRequesterInfo
	}
	return SharedDataOK
}
