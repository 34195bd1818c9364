package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/agent-modules/internal/model"
)

func TestExtractListItems(t *testing.T) {
	cases := []struct {
		query string
		want  []string
	}{
		{"I need to buy milk, eggs, and bread", []string{"milk", "eggs", "bread"}},
		{"Also add cheese to my shopping list", []string{"cheese"}},
		{"Remove milk from my grocery list.", []string{"milk"}},
		{"please get apples & bananas for the party", []string{"apples", "bananas"}},
		{"We're out of milk and butter", []string{"milk", "butter"}},
		{"Remove the cheese and add bread", []string{"cheese"}},
		{"Add bread and remove the cheese", []string{"bread"}},
		{"hello", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractListItems(tc.query))
		})
	}
}

func TestExtractPlanner(t *testing.T) {
	p := ExtractPlanner("Invite Charlie and Dana to Alice's birthday party on March 15")
	assert.Equal(t, "march 15", p.Date)
	assert.Equal(t, []string{"Charlie", "Dana", "Alice"}, p.Guests)
	assert.Equal(t, model.StatusPlanning, p.Status)

	p = ExtractPlanner("Party tomorrow. Bob is bringing cake")
	assert.Equal(t, "tomorrow", p.Date)
	assert.Empty(t, p.Guests)
}

func TestExtractTrackerGoalInterest(t *testing.T) {
	tr := ExtractTracker("I want to keep track of my water intake, 2 litres today")
	assert.Equal(t, "water intake", tr.Metric)

	assert.Equal(t, "unknown", ExtractTracker("hi").Metric)

	g := ExtractGoal("My goal is to run a marathon. Any tips?")
	assert.Equal(t, "run a marathon", g.Title)
	assert.Equal(t, "New Goal", ExtractGoal("nothing here").Title)

	in := ExtractInterest("I'm really interested in machine learning and astronomy")
	assert.Equal(t, []string{"machine", "astronomy"}, in.Keywords)
	assert.Equal(t, model.DefaultEngagement, in.EngagementLevel)
}

func TestExtractCalendar(t *testing.T) {
	c := ExtractCalendar("Dentist appointment on 3/14/2026")
	assert.Equal(t, model.CalendarData{"3/14/2026": "Dentist appointment on 3/14/2026"}, c)
	assert.Empty(t, ExtractCalendar("schedule something"))
}

func TestExtractTags(t *testing.T) {
	assert.Equal(t, []string{"urgent", "work"}, ExtractTags("Important: finish the job report"))
	assert.Nil(t, ExtractTags("groceries"))
}
