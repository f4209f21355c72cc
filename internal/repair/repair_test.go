package repair

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/templates"
)

const stacSearch = "https://example.org/stac/search"

var (
	cleanJS = `showLoading();
fetch('https://example.org/stac/search?limit=20')
    .then(function(r) { return r.json(); })
    .then(function(data) {
        hideLoading();
        data.features.forEach(function(f) { addMarker(f.geometry.coordinates[1], f.geometry.coordinates[0], f.id); });
    })
    .catch(function(err) { showError(err.message); });`
	// one undeclared library: one major issue
	d3JS = "d3.select('#map');"
	// two undeclared libraries: two major issues
	worseJS = "d3.select('#map'); Plotly.newPlot('map', []);"
	// three undeclared libraries
	worstJS = "d3.select('#map'); Plotly.newPlot('map', []); echarts.init(null);"
)

func tracker() *budget.Tracker {
	return budget.New(budget.Ceilings{MaxIterations: 5, MaxModelCalls: 20, MaxToolTime: time.Minute})
}

func mapArtifact(t *testing.T, js string) artifact.Artifact {
	t.Helper()
	tpl, ok := templates.Default().Get(templates.KindMap)
	require.True(t, ok)
	a, err := artifact.New(tpl, templates.Parts{Title: "Quakes", MainContent: `<ul id="events"></ul>`, CustomJS: js}, artifact.Usage{}, time.Now())
	require.NoError(t, err)
	return a
}

func partsReply(t *testing.T, js string) llm.Reply {
	t.Helper()
	b, err := json.Marshal(templates.Parts{Title: "Quakes", MainContent: `<ul id="events"></ul>`, CustomJS: js})
	require.NoError(t, err)
	return llm.Reply{Text: string(b)}
}

func TestCleanArtifactConvergesWithoutRepairCall(t *testing.T) {
	model := llm.NewScripted()
	o := New(model, tracker(), nil, Options{})
	res := o.Run(context.Background(), mapArtifact(t, cleanJS), []string{stacSearch})

	assert.Equal(t, StateConverged, res.State)
	assert.Zero(t, res.Rounds)
	assert.Zero(t, model.Calls(llm.PurposeRepair))
	assert.NoError(t, res.Err)
	assert.Len(t, res.Versions, 1)
}

func TestOneRepairRemovesUndeclaredSymbol(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeRepair, partsReply(t, cleanJS))
	rec := metrics.New()
	o := New(model, tracker(), nil, Options{Metrics: rec})
	broken := mapArtifact(t, d3JS)
	res := o.Run(context.Background(), broken, []string{stacSearch})

	require.Equal(t, StateConverged, res.State)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, 1, model.Calls(llm.PurposeRepair))
	require.Len(t, res.Versions, 2)
	assert.Equal(t, 3, res.Versions[0].Report.Score)
	assert.Equal(t, "d3", res.Versions[0].Report.Issues[0].Locator)
	assert.Zero(t, res.Best.Report.Score)
	assert.Equal(t, 2, res.Best.Artifact.Version)
	assert.Equal(t, broken.ID, res.Best.Artifact.ParentID)
	assert.Equal(t, artifact.OriginRepair, res.Best.Artifact.Origin)

	prompt := model.Requests()[0].Prompt
	assert.Contains(t, prompt, "[ISSUES]")
	assert.Contains(t, prompt, "d3")
	assert.Contains(t, prompt, stacSearch)
	assert.Contains(t, prompt, "[CURRENT_CONTENT]")
}

func TestTwoRegressionsExitWithoutThirdCall(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeRepair, partsReply(t, worseJS), partsReply(t, worstJS), partsReply(t, cleanJS))
	o := New(model, tracker(), nil, Options{MaxRounds: 5})
	res := o.Run(context.Background(), mapArtifact(t, d3JS), []string{stacSearch})

	assert.Equal(t, StateResidual, res.State)
	assert.Equal(t, 2, model.Calls(llm.PurposeRepair))
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, []int{3, 6, 9}, scores(res))
	assert.Equal(t, 1, res.Best.Artifact.Version)
	assert.True(t, errs.Is(res.Err, errs.ValidationNonConvergence))
}

func TestRegressionCounterResets(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeRepair,
		partsReply(t, worseJS), partsReply(t, d3JS), partsReply(t, worseJS), partsReply(t, cleanJS))
	o := New(model, tracker(), nil, Options{MaxRounds: 4})
	res := o.Run(context.Background(), mapArtifact(t, d3JS), nil)

	// endpoints are unprobed here: the clean version still scores 3
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, []int{3, 6, 3, 6, 3}, scores(res))
	assert.Equal(t, 1, res.Best.Artifact.Version, "earliest version wins ties")
}

func TestRoundCeiling(t *testing.T) {
	model := llm.NewScripted().OnFunc(llm.PurposeRepair, func(llm.Request) llm.Reply { return partsReply(t, d3JS) })
	o := New(model, tracker(), nil, Options{MaxRounds: 3})
	res := o.Run(context.Background(), mapArtifact(t, d3JS), []string{stacSearch})

	assert.Equal(t, StateResidual, res.State)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, 3, model.Calls(llm.PurposeRepair))
	assert.Len(t, res.Versions, 4)
	assert.Equal(t, "repair round ceiling reached", res.Reason)
}

func TestMalformedReplyConsumesRound(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeRepair, llm.Reply{Text: "I fixed it!"}, partsReply(t, cleanJS))
	o := New(model, tracker(), nil, Options{})
	res := o.Run(context.Background(), mapArtifact(t, d3JS), []string{stacSearch})

	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 2, res.Rounds)
	require.Len(t, res.Versions, 2)
	assert.Equal(t, 2, res.Versions[1].Artifact.Version)
}

func TestModelFailureIsResidual(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeRepair, llm.Reply{Err: errs.E(errs.ModelUnavailable, "llm.complete", errors.New("503"))})
	o := New(model, tracker(), nil, Options{})
	res := o.Run(context.Background(), mapArtifact(t, d3JS), []string{stacSearch})

	assert.Equal(t, StateResidual, res.State)
	assert.True(t, errs.Is(res.Err, errs.ValidationNonConvergence))
	assert.True(t, errs.Is(res.Err, errs.ModelUnavailable))
	assert.Equal(t, 3, res.Best.Report.Score)
}

func TestExhaustedBudgetSkipsRepair(t *testing.T) {
	tr := budget.New(budget.Ceilings{MaxIterations: 1, MaxModelCalls: 1, MaxToolTime: time.Second})
	require.Equal(t, budget.OK, tr.Consume(budget.ModelCall, 1))
	model := llm.NewScripted()
	res := New(model, tr, nil, Options{}).Run(context.Background(), mapArtifact(t, d3JS), []string{stacSearch})

	assert.Equal(t, StateResidual, res.State)
	assert.Zero(t, model.Calls(llm.PurposeRepair))
	assert.True(t, errs.Is(res.Err, errs.BudgetExhausted))
}

func TestMinorIssuesWithinTolerance(t *testing.T) {
	js := "fetch('https://example.org/stac/search').then(function(r) { return r.json(); });"
	model := llm.NewScripted()
	o := New(model, tracker(), nil, Options{Tolerance: 2})
	res := o.Run(context.Background(), mapArtifact(t, js), []string{stacSearch})
	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 1, res.Best.Report.Score)

	strict := New(model, tracker(), nil, Options{Tolerance: 0, MaxRounds: 1})
	model.On(llm.PurposeRepair, partsReply(t, cleanJS))
	res = strict.Run(context.Background(), mapArtifact(t, js), []string{stacSearch})
	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 1, res.Rounds)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(llm.NewScripted(), tracker(), nil, Options{}).Run(ctx, mapArtifact(t, d3JS), nil)
	assert.Equal(t, StateCancelled, res.State)
	assert.True(t, errs.Is(res.Err, errs.Cancelled))
}

func TestImportedDocumentIsRepairedIntoTemplate(t *testing.T) {
	a := artifact.FromText(templates.KindMap, "<div>no skeleton</div>", time.Now())
	model := llm.NewScripted().On(llm.PurposeRepair, partsReply(t, cleanJS))
	res := New(model, tracker(), nil, Options{}).Run(context.Background(), a, []string{stacSearch})

	assert.Equal(t, StateConverged, res.State)
	assert.Equal(t, 30, res.Versions[0].Report.Score)
	assert.Contains(t, model.Requests()[0].Prompt, "[CURRENT_DOCUMENT]")
}

func scores(res Result) []int {
	out := make([]int, len(res.Versions))
	for i, v := range res.Versions {
		out[i] = v.Report.Score
	}
	return out
}
