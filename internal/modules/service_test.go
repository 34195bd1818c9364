package modules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-modules/internal/detect"
	"github.com/rcliao/agent-modules/internal/lifecycle"
	"github.com/rcliao/agent-modules/internal/logging"
	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/umid"
	"github.com/rcliao/agent-modules/internal/update"
)

const day = 24 * time.Hour

var start = time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	clock := &testClock{t: start}
	svc, err := New("agent-modules",
		WithClock(clock.now),
		WithLogger(logging.Discard()),
	)
	require.NoError(t, err)
	return svc, clock
}

func findSuggestion(res detect.Result, action detect.Action, typ model.Type) (detect.Suggestion, bool) {
	for _, s := range res.Suggestions {
		if s.Action == action && s.ModuleType == typ {
			return s, true
		}
	}
	return detect.Suggestion{}, false
}

func TestShoppingListScenario(t *testing.T) {
	svc, clock := newTestService(t)
	c := model.Collection{}

	q1 := "I need to buy milk, eggs, and bread"
	res := svc.Detect(q1, c)
	create, ok := findSuggestion(res, detect.ActionCreate, model.TypeList)
	require.True(t, ok, "suggestions: %+v", res.Suggestions)
	assert.InDelta(t, 0.8, create.Confidence, 0.001)

	m, err := svc.Apply(c, create, model.Context{Query: q1})
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, model.ListData{"milk", "eggs", "bread"}, m.Data)
	assert.Contains(t, c, m.Identifier)
	assert.Contains(t, m.Metadata.Tags, "shopping")

	clock.t = start.Add(time.Hour)
	q2 := "Also add cheese to my shopping list"
	res = svc.Detect(q2, c)
	upd, ok := findSuggestion(res, detect.ActionUpdate, model.TypeList)
	require.True(t, ok, "suggestions: %+v", res.Suggestions)
	assert.Equal(t, m.Identifier, upd.ModuleKey)
	assert.GreaterOrEqual(t, upd.Confidence, 0.8)

	m, err = svc.Apply(c, upd, model.Context{Query: q2})
	require.NoError(t, err)
	assert.Equal(t, model.ListData{"milk", "eggs", "bread", "cheese"}, m.Data)
	assert.Equal(t, start, m.Metadata.CreatedAt)
	assert.Equal(t, clock.t, m.Metadata.LastUpdated)

	// Same request again must not duplicate.
	m, err = svc.Apply(c, upd, model.Context{Query: q2})
	require.NoError(t, err)
	assert.Equal(t, model.ListData{"milk", "eggs", "bread", "cheese"}, m.Data)
}

func TestApplyListUpdateKeepsItemsWithoutEditVerb(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{
		Key:  "groceries",
		Type: model.TypeList,
		Data: model.ListData{"milk", "eggs", "bread", "cheese"},
	})
	require.NoError(t, err)

	q := "Please update my shopping list, we are out of milk"
	upd, ok := findSuggestion(svc.Detect(q, c), detect.ActionUpdate, model.TypeList)
	require.True(t, ok)

	m, err := svc.Apply(c, upd, model.Context{Query: q})
	require.NoError(t, err)
	assert.Equal(t, model.ListData{"milk", "eggs", "bread", "cheese"}, m.Data)

	q = "Remove the cheese and add bread to my shopping list"
	upd, ok = findSuggestion(svc.Detect(q, c), detect.ActionUpdate, model.TypeList)
	require.True(t, ok)
	assert.Equal(t, model.ListData{"cheese"}, upd.Proposed)

	m, err = svc.Apply(c, upd, model.Context{Query: q})
	require.NoError(t, err)
	assert.Equal(t, model.ListData{"milk", "eggs", "bread"}, m.Data)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New("Bad Service")
	assert.ErrorIs(t, err, umid.ErrInvalidService)

	_, err = New("agent-modules", WithPolicy(lifecycle.Policy{ArchiveAfter: 10 * day, RemoveAfter: day}))
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}

	m, err := svc.Create(c, CreateParams{
		Key:     "work-goals",
		Type:    model.TypeGoal,
		Data:    &model.GoalData{Title: "Ship v2", Progress: 140},
		Context: model.Context{Query: "urgent work goal: ship v2 release"},
	})
	require.NoError(t, err)
	require.Same(t, m, c["work-goals"])

	p, ok := umid.Parse(m.Identifier)
	require.True(t, ok, m.Identifier)
	assert.Equal(t, "agent-modules", p.Service)
	assert.Equal(t, "goal", p.ModuleType)
	assert.Equal(t, start.Unix(), p.Timestamp)

	assert.Equal(t, 100, m.Data.(*model.GoalData).Progress)
	assert.Equal(t, model.DefaultPriority, m.Metadata.Priority)
	assert.Equal(t, start, m.Metadata.CreatedAt)
	assert.Equal(t, start, m.Metadata.LastAccessed)
	assert.False(t, m.Metadata.Archived)
	assert.Subset(t, m.Metadata.Tags, []string{"urgent", "work"})
	assert.NoError(t, Verify(m))
}

func TestCreateDuplicateKey(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "groceries", Type: model.TypeList})
	require.NoError(t, err)

	_, err = svc.Create(c, CreateParams{Key: "groceries", Type: model.TypeCalendar})
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "groceries", dup.Key)
	assert.Equal(t, model.TypeList, c["groceries"].Type, "existing module untouched")
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}

	_, err := svc.Create(c, CreateParams{Type: "notes"})
	assert.ErrorIs(t, err, model.ErrUnknownType)

	_, err = svc.Create(c, CreateParams{Type: model.TypeList, Data: &model.GoalData{}})
	assert.ErrorIs(t, err, update.ErrTypeMismatch)
	assert.Empty(t, c)
}

func TestCreateDefaultsAndPriority(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}

	m, err := svc.Create(c, CreateParams{Type: model.TypeTracker, Priority: 42})
	require.NoError(t, err)
	assert.Equal(t, model.MaxPriority, m.Metadata.Priority)
	assert.Equal(t, model.UnknownMetric, m.Data.(*model.TrackerData).Metric)
	assert.Equal(t, []string{"tracker"}, m.Metadata.ContextKeywords)
	assert.Contains(t, c, m.Identifier)
}

func TestUpdateMissingKeyIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "groceries", Type: model.TypeList, Data: model.ListData{"milk"}})
	require.NoError(t, err)

	m, err := svc.Update(c, "nonexistentKey", update.ListPatch{Item: "eggs"}, model.Context{})
	assert.NoError(t, err)
	assert.Nil(t, m)
	assert.Len(t, c, 1)
	assert.Equal(t, model.ListData{"milk"}, c["groceries"].Data)
}

func TestUpdateRefreshesAndResurrects(t *testing.T) {
	svc, clock := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "marathon", Type: model.TypeGoal, Data: &model.GoalData{Title: "Marathon"}})
	require.NoError(t, err)
	c["marathon"].Metadata.Archived = true

	clock.t = start.Add(40 * day)
	progress := 150
	m, err := svc.Update(c, "marathon", update.GoalPatch{Progress: &progress}, model.Context{})
	require.NoError(t, err)
	assert.Equal(t, 100, m.Data.(*model.GoalData).Progress)
	assert.False(t, m.Metadata.Archived)
	assert.Equal(t, clock.t, m.Metadata.LastUpdated)
	assert.Equal(t, clock.t, m.Metadata.LastAccessed)
	assert.Equal(t, start, m.Metadata.CreatedAt)

	progress = -5
	m, err = svc.Update(c, "marathon", update.GoalPatch{Progress: &progress}, model.Context{})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Data.(*model.GoalData).Progress)
}

func TestUpdateTypeMismatchLeavesModule(t *testing.T) {
	svc, clock := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "groceries", Type: model.TypeList, Data: model.ListData{"milk"}})
	require.NoError(t, err)

	clock.t = start.Add(day)
	_, err = svc.Update(c, "groceries", update.CalendarPatch{"2026-04-11": "dentist"}, model.Context{})
	assert.ErrorIs(t, err, update.ErrTypeMismatch)
	assert.Equal(t, model.ListData{"milk"}, c["groceries"].Data)
	assert.Equal(t, start, c["groceries"].Metadata.LastUpdated)
}

func TestAccess(t *testing.T) {
	svc, clock := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "plans", Type: model.TypePlanner})
	require.NoError(t, err)
	c["plans"].Metadata.Archived = true

	assert.Nil(t, svc.Access(c, "missing"))

	clock.t = start.Add(50 * day)
	m := svc.Access(c, "plans")
	require.NotNil(t, m)
	assert.False(t, m.Metadata.Archived)
	assert.Equal(t, clock.t, m.Metadata.LastAccessed)
	assert.Equal(t, start, m.Metadata.LastUpdated)
}

func TestApplyUnknownAction(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Apply(model.Collection{}, detect.Suggestion{Action: "explode"}, model.Context{})
	assert.Error(t, err)

	_, err = svc.CreateFromSuggestion(model.Collection{}, detect.Suggestion{Action: detect.ActionAccess}, model.Context{})
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	for _, key := range []string{"stale", "idle", "gone", "fresh"} {
		_, err := svc.Create(c, CreateParams{Key: key, Type: model.TypeList})
		require.NoError(t, err)
	}
	c["gone"].Metadata.Archived = true
	c["idle"].Metadata.LastAccessed = start.Add(50 * day)
	c["fresh"].Metadata.LastAccessed = start.Add(90 * day)

	at := start.Add(91 * day)
	res := svc.Sweep(c, at)
	assert.Equal(t, []string{"idle", "stale"}, res.Archived)
	assert.Equal(t, []string{"gone", "stale"}, res.Removed)
	assert.NotContains(t, c, "stale")
	assert.True(t, c["idle"].Metadata.Archived)
	assert.False(t, c["fresh"].Metadata.Archived)

	again := svc.Sweep(c, at)
	assert.True(t, again.Empty())
	assert.Len(t, c, 2)
}

func TestSummarize(t *testing.T) {
	svc, clock := newTestService(t)
	c := model.Collection{}

	mk := func(key string, typ model.Type, prio int, at time.Time) {
		clock.t = at
		_, err := svc.Create(c, CreateParams{Key: key, Type: typ, Priority: prio})
		require.NoError(t, err)
	}
	mk("old-low", model.TypeList, 2, start)
	mk("old-high", model.TypeGoal, 9, start)
	mk("new-high", model.TypeGoal, 9, start.Add(20*day))
	mk("new-mid", model.TypeTracker, 5, start.Add(25*day))
	mk("archived", model.TypeCalendar, 10, start.Add(25*day))
	c["archived"].Metadata.Archived = true

	clock.t = start.Add(26 * day)
	sum := svc.Summarize(c)

	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 4, sum.TotalActive)
	assert.Equal(t, 1, sum.Archived)
	assert.Len(t, sum.CountsByType, len(model.Types))
	assert.Equal(t, 2, sum.CountsByType[model.TypeGoal])
	assert.Equal(t, 0, sum.CountsByType[model.TypeCalendar])
	assert.Equal(t, 0, sum.CountsByType[model.TypeInterest])

	var top []string
	for _, e := range sum.TopActive {
		top = append(top, e.Key)
	}
	assert.Equal(t, []string{"new-high", "old-high", "new-mid", "old-low"}, top)

	var recent []string
	for _, e := range sum.RecentlyUpdated {
		recent = append(recent, e.Key)
	}
	assert.Equal(t, []string{"new-mid", "new-high"}, recent)
}

func TestSummarizeLimits(t *testing.T) {
	clock := &testClock{t: start}
	svc, err := New("agent-modules", WithClock(clock.now), WithSummaryOptions(SummaryOptions{TopActive: 1, RecentWindow: time.Hour, RecentLimit: 1}))
	require.NoError(t, err)

	c := model.Collection{}
	for _, key := range []string{"a", "b", "c"} {
		_, err := svc.Create(c, CreateParams{Key: key, Type: model.TypeList})
		require.NoError(t, err)
	}
	sum := svc.Summarize(c)
	assert.Len(t, sum.TopActive, 1)
	assert.Len(t, sum.RecentlyUpdated, 1)

	empty := svc.Summarize(model.Collection{})
	assert.Zero(t, empty.TotalActive)
	assert.NotNil(t, empty.TopActive)
	assert.NotNil(t, empty.RecentlyUpdated)
}

func TestVerify(t *testing.T) {
	good := &model.Module{
		Identifier: "agent-modules.goal.a1b2c3d4.1721737200.x7z9",
		Type:       model.TypeGoal,
		Data:       &model.GoalData{Title: "x", Progress: 10, Milestones: []model.Milestone{}},
		Metadata:   model.Metadata{CreatedAt: start, LastAccessed: start, Priority: 5},
	}
	assert.NoError(t, Verify(good))

	bad := good.Clone()
	bad.Identifier = "agent-modules.list.a1b2c3d4.1721737200.x7z9"
	assert.ErrorIs(t, Verify(bad), ErrIdentityType)

	bad = good.Clone()
	bad.Metadata.LastAccessed = start.Add(-time.Second)
	assert.ErrorIs(t, Verify(bad), ErrAccessOrder)

	bad = good.Clone()
	bad.Metadata.Priority = 11
	assert.ErrorIs(t, Verify(bad), ErrOutOfBounds)

	bad = good.Clone()
	bad.Data.(*model.GoalData).Progress = 101
	assert.ErrorIs(t, Verify(bad), ErrOutOfBounds)

	bad = good.Clone()
	bad.Data = model.ListData{}
	assert.ErrorIs(t, Verify(bad), update.ErrTypeMismatch)
}
