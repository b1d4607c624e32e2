package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	raw := "```json\n{\"updates\":{\"name\":\"Dana\",\"contactPhone\":\"3055551234\"},\"action\":\"book\",\"chosen_index\":1,\"reply\":\"  Booking that now. \"}\n```"

	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionBook, plan.Action)
	require.NotNil(t, plan.ChosenIndex)
	assert.Equal(t, 1, *plan.ChosenIndex)
	assert.Equal(t, "Dana", plan.Updates.Name)
	assert.Equal(t, "3055551234", plan.Updates.ContactPhone)
	assert.Equal(t, "Booking that now.", plan.Reply)
}

func TestParsePlanDowngradesUnknownAction(t *testing.T) {
	plan, err := ParsePlan(`Sure! {"action":"DANCE","chosen_index":7,"reply":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, ActionAsk, plan.Action)
	assert.Nil(t, plan.ChosenIndex)
}

func TestParsePlanRejectsGarbage(t *testing.T) {
	_, err := ParsePlan("not json at all")
	assert.Error(t, err)
}

type fakeGenerator struct {
	system  string
	history []Message
	latest  string
	out     string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, system string, history []Message, latest string) (string, error) {
	f.system, f.history, f.latest = system, history, latest
	return f.out, f.err
}

func TestLLMPlannerSendsStateAndLatestTurn(t *testing.T) {
	gen := &fakeGenerator{out: `{"action":"ASK_DAY_PREFERENCE","reply":"Tomorrow morning or Thursday afternoon?"}`}
	p := NewLLMPlanner(gen, "American Developer Group", nil)

	plan, err := p.Plan(context.Background(), Request{
		History: []Message{
			{Role: RoleAssistant, Text: "What's the best number to reach you?"},
			{Role: RoleCaller, Text: "305 555 1234"},
		},
		Facts:   Facts{Name: "Dana", Intent: IntentRemodel, Address: "12 Elm St", GreetedOnce: true},
		Offered: []string{"Option 1: tomorrow at 9 a.m."},
		Now:     time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionAskDayPreference, plan.Action)

	assert.Equal(t, "305 555 1234", gen.latest)
	require.Len(t, gen.history, 1)
	assert.Contains(t, gen.system, "American Developer Group")
	assert.Contains(t, gen.system, "Friday, October 16, 2026")
	assert.Contains(t, gen.system, `"address": "12 Elm St"`)
	assert.Contains(t, gen.system, "Option 1: tomorrow at 9 a.m.")
}

func TestLLMPlannerWrapsGeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	p := NewLLMPlanner(&fakeGenerator{err: boom}, "Acme", nil)

	_, err := p.Plan(context.Background(), Request{History: []Message{{Role: RoleCaller, Text: "hi"}}})
	assert.ErrorIs(t, err, boom)
}

func TestRulePlannerWalksRemodelFlow(t *testing.T) {
	p := RulePlanner{}
	ctx := context.Background()
	facts := Facts{}
	apply := func(u Updates) {
		if u.Name != "" {
			facts.Name = u.Name
		}
		if u.Intent != "" {
			facts.Intent = u.Intent
		}
		if u.Address != "" {
			facts.Address = u.Address
		}
		if u.ContactPhone != "" {
			facts.ContactPhone = u.ContactPhone
		}
	}
	turn := func(text string) Plan {
		plan, err := p.Plan(ctx, Request{History: []Message{{Role: RoleCaller, Text: text}}, Facts: facts})
		require.NoError(t, err)
		apply(plan.Updates)
		return plan
	}

	plan := turn("Hi, this is Dana Whitfield and I need a kitchen remodel")
	assert.Equal(t, ActionAsk, plan.Action)
	assert.Equal(t, "Dana Whitfield", facts.Name)
	assert.Equal(t, IntentRemodel, facts.Intent)
	assert.Contains(t, plan.Reply, "address")

	plan = turn("12 Elm Street, Springfield")
	assert.Equal(t, "12 Elm Street, Springfield", facts.Address)
	assert.Contains(t, plan.Reply, "phone")

	plan = turn("three oh five five five five one two three four")
	assert.Equal(t, "3055551234", facts.ContactPhone)
	assert.Equal(t, ActionAskDayPreference, plan.Action)
}

func TestRulePlannerRoutesAlternates(t *testing.T) {
	cases := map[string]Action{
		"I'm Sam, are you hiring? I want a job":          ActionAltJob,
		"I'm Sam, a subcontractor looking to partner":    ActionAltPartner,
		"I'm Sam and I sell advertising":                 ActionAltMarketing,
		"I'm Sam and I want a bathroom remodel estimate": ActionAsk,
	}
	for text, want := range cases {
		plan, err := RulePlanner{}.Plan(context.Background(), Request{History: []Message{{Role: RoleCaller, Text: text}}})
		require.NoError(t, err)
		assert.Equal(t, want, plan.Action, text)
	}
}

func TestSystemPromptMentionsEveryAction(t *testing.T) {
	prompt := SystemPrompt("Acme", time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC))
	for a := range knownActions {
		assert.True(t, strings.Contains(prompt, string(a)), "prompt missing %s", a)
	}
}

func TestFallbackUsesSecondaryOnError(t *testing.T) {
	p := Fallback{
		Primary:   NewLLMPlanner(&fakeGenerator{err: errors.New("503")}, "Acme", nil),
		Secondary: RulePlanner{},
	}
	plan, err := p.Plan(context.Background(), Request{History: []Message{{Role: RoleCaller, Text: "hi"}}})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Plan(ctx, Request{History: []Message{{Role: RoleCaller, Text: "hi"}}})
	assert.Error(t, err)
}
