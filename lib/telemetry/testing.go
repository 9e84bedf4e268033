package telemetry

import (
	"fmt"
	"sync"
	"testing"
)

// Report is a single call recorded by TestAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
	Count  int64
}

// TestAPI is an API that records every report and forwards it to the test log.
type TestAPI struct {
	t       testing.TB
	mutex   sync.Mutex
	reports []Report
}

func NewTestAPI(t testing.TB) *TestAPI {
	return &TestAPI{t: t}
}

func (a *TestAPI) record(r Report) {
	a.mutex.Lock()
	a.reports = append(a.reports, r)
	a.mutex.Unlock()
	a.t.Log(r.Kind, r.ID, fmt.Sprint(r.Params...))
}

func (a *TestAPI) ReportBroken(id string, params ...any) {
	a.record(Report{Kind: "broken", ID: id, Params: params})
}

func (a *TestAPI) ReportWarning(id string, params ...any) {
	a.record(Report{Kind: "warning", ID: id, Params: params})
}

func (a *TestAPI) ReportDebug(msg string, params ...any) {
	a.record(Report{Kind: "debug", ID: msg, Params: params})
}

func (a *TestAPI) ReportCount(id string, count int64) {
	a.record(Report{Kind: "count", ID: id, Count: count})
}

// Reports returns the recorded reports of the given kind ("broken",
// "warning", "debug", "count"), an empty kind returns everything.
func (a *TestAPI) Reports(kind string) []Report {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var out []Report
	for _, r := range a.reports {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Broken returns the ids of every ReportBroken call.
func (a *TestAPI) Broken() []string {
	var ids []string
	for _, r := range a.Reports("broken") {
		ids = append(ids, r.ID)
	}
	return ids
}
