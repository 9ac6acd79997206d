package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/alexanderramin/pathways/internal/llm"
	"github.com/alexanderramin/pathways/internal/lock"
	"github.com/alexanderramin/pathways/internal/metrics"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/search"
	"github.com/alexanderramin/pathways/internal/service"
	"github.com/alexanderramin/pathways/internal/state"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	deltas []string
	err    error
	got    intelligence.ChatRequest
}

func (f *fakeAssistant) Chat(_ context.Context, req intelligence.ChatRequest, onDelta func(string)) (*intelligence.ChatAnswer, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.deltas {
		onDelta(d)
	}
	return &intelligence.ChatAnswer{Text: strings.Join(f.deltas, ""), Model: "fake"}, nil
}

type testServer struct {
	*httptest.Server
	locker    *lock.Memory
	assistant *fakeAssistant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	pathways := repository.NewSQLPathwayRepo(database)
	require.NoError(t, pathways.Upsert(ctx, testutil.NewIrishGPPathway()))
	profiles := repository.NewSQLProfileRepo(database)
	milestones := repository.NewSQLUserMilestoneRepo(database)
	require.NoError(t, profiles.Create(ctx, testutil.NewTestProfile("u1", testutil.WithPathwayRefs("ie-gp"))))

	loader := catalog.NewLoader(pathways, catalog.Rules{}, time.Minute)
	store := state.NewStore(profiles, milestones, time.Minute)
	locker := lock.NewMemory()
	m := metrics.New()
	assistant := &fakeAssistant{deltas: []string{"Sit ", "PRES."}}

	srv := NewServer(Deps{
		Dashboard:  service.NewDashboardService(loader, store, profiles, progress.NewTracker(), nil, nil, m),
		Milestones: service.NewMilestoneService(loader, store, profiles, milestones, locker, service.MutationOptions{}, m),
		Pathways:   service.NewPathwayService(pathways, loader, testutil.NewTestUoW(database), search.NewService(nil, nil), m),
		Assistant:  assistant,
		Metrics:    m.Handler(),
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, locker: locker, assistant: assistant}
}

func (ts *testServer) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) dashboard(t *testing.T) contract.DashboardResponse {
	t.Helper()
	resp, err := http.Get(ts.URL + "/v1/users/u1/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out contract.DashboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeError(t *testing.T, resp *http.Response) contract.Error {
	t.Helper()
	var e contract.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	dash := ts.dashboard(t)
	require.Len(t, dash.Cards, 1)
	assert.Equal(t, "ie-gp", dash.Cards[0].PathwayID)
	assert.Equal(t, 5, dash.Cards[0].Progress.TotalRequired)

	resp, err := http.Get(ts.URL + "/v1/users/nobody/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, contract.ErrCodeNotFound, decodeError(t, resp).Code)
}

func TestToggleThenDashboard(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/v1/users/u1/milestones/toggle", `{"pathway_id":"ie-gp","milestone_name":"PRES"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res contract.ToggleResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, domain.ItemInProgress, res.Status)

	ts.post(t, "/v1/users/u1/milestones/toggle", `{"pathway_id":"ie-gp","milestone_name":"PRES"}`)
	assert.Equal(t, 20, ts.dashboard(t).Cards[0].Progress.PercentComplete)
}

func TestMilestoneEdits(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNoContent,
		ts.post(t, "/v1/users/u1/milestones/hide", `{"pathway_id":"ie-gp","name":"IELTS"}`).StatusCode)
	assert.Len(t, ts.dashboard(t).Cards[0].Hidden, 1)

	assert.Equal(t, http.StatusNoContent,
		ts.post(t, "/v1/users/u1/milestones/unhide-all", `{"pathway_id":"ie-gp"}`).StatusCode)
	assert.Empty(t, ts.dashboard(t).Cards[0].Hidden)

	assert.Equal(t, http.StatusNoContent,
		ts.post(t, "/v1/users/u1/milestones/rename", `{"pathway_id":"ie-gp","item_id":"PRES","name":"Pre-entry exam"}`).StatusCode)

	assert.Equal(t, http.StatusNoContent,
		ts.post(t, "/v1/users/u1/milestones/reorder", `{"pathway_id":"ie-gp","active_id":"MRCGP","over_id":"PRES"}`).StatusCode)
}

func TestCustomMilestones(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/v1/users/u1/custom-milestones", `{"pathway_id":"ie-gp","name":"Book flights"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cm domain.CustomMilestone
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cm))
	assert.Equal(t, "Book flights", cm.Name)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/users/u1/custom-milestones/"+cm.ID, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/v1/users/u1/milestones/toggle", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contract.ErrCodeValidation, decodeError(t, resp).Code)

	resp = ts.post(t, "/v1/users/u1/milestones/reorder", `{"pathway_id":"ie-gp","active_id":"IELTS","over_id":"PRES"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, contract.ErrCodeCrossCategory, decodeError(t, resp).Code)

	release, err := ts.locker.Acquire(context.Background(), "u1:ie-gp/PRES", time.Minute)
	require.NoError(t, err)
	defer release()
	resp = ts.post(t, "/v1/users/u1/milestones/toggle", `{"pathway_id":"ie-gp","milestone_name":"PRES"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, contract.ErrCodeBusy, decodeError(t, resp).Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrRemoteWrite, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{service.ErrNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := statusFor(tc.err)
		assert.Equal(t, tc.status, status, "%v", tc.err)
	}
}

func TestPathwaysAndSearch(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/pathways")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Pathways []domain.Pathway `json:"pathways"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Pathways, 1)

	resp, err = http.Get(ts.URL + "/v1/pathways/search?q=irish")
	require.NoError(t, err)
	defer resp.Body.Close()
	var found search.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
	require.Len(t, found.Hits, 1)

	resp, err = http.Get(ts.URL + "/v1/pathways/search?q=irish&limit=zero")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// readEvents parses an SSE body into (event, data) pairs.
func readEvents(t *testing.T, resp *http.Response) [][2]string {
	t.Helper()
	var (
		out   [][2]string
		event string
	)
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			out = append(out, [2]string{event, strings.TrimPrefix(line, "data: ")})
		}
	}
	require.NoError(t, sc.Err())
	return out
}

func TestAssistant_StreamsEvents(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.post(t, "/v1/users/u1/assistant", `{"pathway_id":"ie-gp","question":"What next?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp)
	require.Len(t, events, 3)
	assert.Equal(t, [2]string{"delta", `{"text":"Sit "}`}, events[0])
	assert.Equal(t, "done", events[2][0])
	assert.Contains(t, events[2][1], `"text":"Sit PRES."`)
	assert.Equal(t, "ie-gp", ts.assistant.got.Card.PathwayID)
}

func TestAssistant_ErrorEvent(t *testing.T) {
	ts := newTestServer(t)
	ts.assistant.err = llm.ErrCreditsExhausted

	resp := ts.post(t, "/v1/users/u1/assistant", `{"pathway_id":"ie-gp","question":"What next?"}`)
	events := readEvents(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0][0])
	assert.Contains(t, events[0][1], "AI credits exhausted")
	assert.Contains(t, events[0][1], "CREDITS_EXHAUSTED")
}

func TestAssistant_Validation(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.post(t, "/v1/users/u1/assistant", `{"pathway_id":"ie-gp"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.post(t, "/v1/users/u1/assistant", `{"pathway_id":"nope","question":"q"}`)
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.dashboard(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := new(strings.Builder)
	_, err = bufio.NewReader(resp.Body).WriteTo(body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `use_case="load-dashboard"`)
}
