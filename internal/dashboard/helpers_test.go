package dashboard

import (
	"context"
	"sync"

	"github.com/guregu/null/v6"

	"github.com/yourorg/market-dashboard/internal/model"
)

func dated(date string) model.Bar {
	return model.Bar{Date: null.StringFrom(date)}
}

func withClose(date string, close float64) model.Bar {
	return model.Bar{Date: null.StringFrom(date), Close: null.FloatFrom(close)}
}

func dates(bars []model.Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Date.String
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type memCache struct {
	bars  []model.Bar
	puts  int
	reads int
}

func (c *memCache) Has() bool { c.reads++; return len(c.bars) > 0 }

func (c *memCache) Get() ([]model.Bar, bool) {
	c.reads++
	return c.bars, c.bars != nil
}

func (c *memCache) Put(bars []model.Bar) { c.bars = bars; c.puts++ }

type fakeSource struct {
	summary    *model.Summary
	summaryErr error
	bars       []model.Bar
	barsErr    error
}

func (f *fakeSource) FetchSummary(context.Context) (*model.Summary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeSource) FetchBars(context.Context) ([]model.Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeSource) Endpoint() string { return "http://api.test" }

type recordingPresenter struct {
	mu         sync.Mutex
	states     []State
	indicators []model.SortState
}

func (p *recordingPresenter) Render(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *recordingPresenter) SetSortIndicator(column string, direction model.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indicators = append(p.indicators, model.SortState{Column: column, Direction: direction})
}

func (p *recordingPresenter) last() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return State{Kind: -1}
	}
	return p.states[len(p.states)-1]
}
