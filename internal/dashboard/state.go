package dashboard

import (
	"context"

	"github.com/yourorg/market-dashboard/internal/model"
)

// StateKind is one of the mutually exclusive presentation states
type StateKind int

const (
	StateLoading StateKind = iota
	StateTable
	StateEmpty
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateLoading:
		return "loading"
	case StateTable:
		return "table"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what the presenter is asked to show. Summary and Bars are set for
// StateTable, Message for StateError.
type State struct {
	Kind    StateKind
	Summary *model.Summary
	Bars    []model.Bar
	Message string
}

// Presenter displays session states
type Presenter interface {
	Render(state State)
	SetSortIndicator(column string, direction model.Direction)
}

// DataSource fetches the summary and the records of one view. Implementations
// wrap failures with ErrTransport or ErrDecode.
type DataSource interface {
	FetchSummary(ctx context.Context) (*model.Summary, error)
	FetchBars(ctx context.Context) ([]model.Bar, error)
	Endpoint() string
}

// BarCache keeps the last good record set of a view. Backend failures degrade
// to "not present" and are never returned. Get reads the backend once and
// reports presence alongside the bars.
type BarCache interface {
	Has() bool
	Get() ([]model.Bar, bool)
	Put(bars []model.Bar)
}
