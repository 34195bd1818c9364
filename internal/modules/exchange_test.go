package modules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/umid"
)

func foreignModule(id string, typ model.Type) *model.Module {
	d, _ := model.DefaultData(typ)
	return &model.Module{
		Identifier: id,
		Type:       typ,
		Data:       d,
		Metadata:   model.Metadata{CreatedAt: start, LastUpdated: start, LastAccessed: start, Priority: 5, Tags: []string{}},
	}
}

func TestFilters(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	_, err := svc.Create(c, CreateParams{Key: "mine-list", Type: model.TypeList})
	require.NoError(t, err)
	_, err = svc.Create(c, CreateParams{Key: "mine-goal", Type: model.TypeGoal})
	require.NoError(t, err)
	c["theirs"] = foreignModule("notion.list.a1b2c3d4.1721737200.x7z9", model.TypeList)
	c["legacy"] = foreignModule("shopping_list", model.TypeList)

	assert.Equal(t, []string{"mine-goal", "mine-list"}, ByService(c, "agent-modules"))
	assert.Equal(t, []string{"theirs"}, ByService(c, "notion"))
	assert.Equal(t, []string{"legacy", "mine-list", "theirs"}, ByType(c, model.TypeList))
	assert.Empty(t, ByType(c, model.TypeCalendar))
}

func TestExportImport(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	m, err := svc.Create(c, CreateParams{Key: "groceries", Type: model.TypeList, Data: model.ListData{"milk"}})
	require.NoError(t, err)
	c["theirs"] = foreignModule("notion.list.a1b2c3d4.1721737200.x7z9", model.TypeList)
	c["legacy"] = foreignModule("shopping_list", model.TypeList)

	env, err := svc.Export(c, "chatgpt")
	require.NoError(t, err)
	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
	assert.Equal(t, "agent-modules", env.SourceService)
	assert.Equal(t, "chatgpt", env.TargetService)
	assert.Equal(t, start, env.ExportedAt)
	require.Len(t, env.Modules, 1)
	assert.Equal(t, m.Identifier, env.Modules["groceries"].Identifier)

	env.Modules["groceries"].Data = model.ListData{"changed"}
	assert.Equal(t, model.ListData{"milk"}, c["groceries"].Data, "export copies modules")

	other, err := New("chatgpt")
	require.NoError(t, err)
	dst := model.Collection{"groceries": foreignModule("chatgpt.list.a1b2c3d4.1721737200.aaaa", model.TypeList)}
	env.Modules["fresh"] = foreignModule("agent-modules.goal.a1b2c3d4.1721737200.bbbb", model.TypeGoal)
	env.Modules["broken"] = foreignModule("not-an-id", model.TypeGoal)
	env.Modules["mismatch"] = foreignModule("agent-modules.list.a1b2c3d4.1721737200.cccc", model.TypeGoal)

	res := other.Import(dst, env)
	assert.Equal(t, []string{"fresh"}, res.Imported)
	reasons := map[string]string{}
	for _, s := range res.Skipped {
		reasons[s.Key] = s.Reason
	}
	assert.Equal(t, "invalid identifier", reasons["broken"])
	assert.Equal(t, "key exists", reasons["groceries"])
	assert.Contains(t, reasons["mismatch"], "identifier type")
	assert.Len(t, dst, 2)

	_, err = svc.Export(c, "X")
	assert.ErrorIs(t, err, umid.ErrInvalidService)
	assert.Empty(t, svc.Import(c, nil).Imported)
}

func TestMigrateLegacy(t *testing.T) {
	svc, _ := newTestService(t)
	c := model.Collection{}
	kept, err := svc.Create(c, CreateParams{Type: model.TypeList})
	require.NoError(t, err)

	goal := foreignModule("", model.TypeGoal)
	goal.Data = &model.GoalData{Title: "Learn Spanish", Milestones: []model.Milestone{}}
	c["goal_1"] = goal

	withID := foreignModule("notion.tracker.a1b2c3d4.1721737200.x7z9", model.TypeTracker)
	c["weight"] = withID

	res, err := svc.MigrateLegacy(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Migrated)
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, c, kept.Identifier)

	newGoal := res.Mapping["goal_1"]
	p, ok := umid.Parse(newGoal)
	require.True(t, ok, newGoal)
	assert.Equal(t, "goal", p.ModuleType)
	assert.Equal(t, umid.ContextHash([]string{"learn", "spanish", "goal"}), p.ContextHash)
	assert.Equal(t, "goal_1", c[newGoal].Metadata.MigratedFrom)
	assert.Equal(t, newGoal, c[newGoal].Identifier)
	assert.NotContains(t, c, "goal_1")

	assert.Equal(t, "notion.tracker.a1b2c3d4.1721737200.x7z9", res.Mapping["weight"], "existing identifier is reused")
	assert.Len(t, c, 3)

	again, err := svc.MigrateLegacy(c)
	require.NoError(t, err)
	assert.Zero(t, again.Migrated)
	assert.Equal(t, 3, again.Skipped)
}

func TestLegacyKeywords(t *testing.T) {
	m := foreignModule("", model.TypeList)
	assert.Equal(t, []string{"module"}, legacyKeywords("123", m))
	assert.Equal(t, []string{"shopping", "list"}, legacyKeywords("shopping_list", m))

	m.Metadata.Tags = []string{"a b c d e f g"}
	assert.Len(t, legacyKeywords("key", m), maxLegacyKeywords)
}
