package framehost

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/framehost/backend"
	"github.com/gogpu/framehost/config"
	"github.com/gogpu/framehost/feature"
	"github.com/gogpu/framehost/params"
	"github.com/gogpu/framehost/resource"
	"github.com/gogpu/framehost/state"
)

func TestResultOf(t *testing.T) {
	tests := []struct {
		err  error
		want Result
	}{
		{nil, ResultOK},
		{errors.New("other"), ResultUnknown},
		{context.DeadlineExceeded, ResultCanceled},
		{fmt.Errorf("wrap: %w", config.ErrInvalid), ResultInvalidConfig},
		{ErrClosed, ResultNotInitialized},
		{params.ErrNotFound, ResultMissingParameter},
		{params.ErrTypeMismatch, ResultInvalidParameter},
		{resource.ErrMissingInput, ResultMissingInput},
		{resource.ErrTagExpired, ResultExpiredInput},
		{resource.ErrMissingState, ResultMissingState},
		{resource.ErrExtentOutOfBounds, ResultInvalidInput},
		{state.ErrNilResource, ResultInvalidResource},
		{feature.ErrMissingConstants, ResultMissingConstants},
		{feature.ErrDispatchInFlight, ResultInvalidState},
		{backend.ErrBackendNotAvailable, ResultBackendUnavailable},
		{errors.Join(errors.New("other"), resource.ErrTagExpired), ResultExpiredInput},
		// A plugin failing on a missing dependency reports the dependency.
		{fmt.Errorf("feature: sharpen dependencies: %w", params.ErrNotFound), ResultMissingParameter},
	}
	for _, tt := range tests {
		if got := ResultOf(tt.err); got != tt.want {
			t.Errorf("ResultOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestResultString(t *testing.T) {
	for r := ResultOK; r <= ResultInvalidRecord; r++ {
		if r.String() == "" || (r != ResultUnknown && r.String() == "unknown") {
			t.Errorf("Result(%d) has no name", r)
		}
	}
	if Result(-1).String() != "unknown" || Result(1000).String() != "unknown" {
		t.Error("out of range Result should be unknown")
	}
}

func TestResultTableSentinelsDistinct(t *testing.T) {
	seen := make(map[error]bool)
	for _, e := range resultTable {
		if seen[e.err] {
			t.Errorf("sentinel %v listed twice", e.err)
		}
		seen[e.err] = true
	}
}
