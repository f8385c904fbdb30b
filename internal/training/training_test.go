package training

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Fitdiary/internal/analysislog"
	"Fitdiary/internal/apperr"
	"Fitdiary/internal/geminiservice"
	"Fitdiary/internal/planner"
	"Fitdiary/internal/prompts"
	"Fitdiary/internal/quota"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	prompt string
}

func (f *fakeAI) Generate(_ context.Context, req geminiservice.Request) (geminiservice.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompt = req.Prompt
	if f.err != nil {
		return geminiservice.Result{}, f.err
	}
	return geminiservice.Result{Text: f.text}, nil
}

func (f *fakeAI) Model() string { return "test-model" }

type fakeTemplates struct{ err error }

func (f fakeTemplates) GetLatest(_ context.Context, name string) (prompts.Template, error) {
	if f.err != nil {
		return prompts.Template{}, f.err
	}
	return prompts.Template{ID: uuid.New(), Name: name, Version: "1.0.0", Text: "Plan workouts."}, nil
}

type fakeCatalog struct {
	entries []planner.WhitelistEntry
	err     error
}

func (f fakeCatalog) Whitelist(context.Context, string) ([]planner.WhitelistEntry, error) {
	return f.entries, f.err
}

type recorder struct {
	mu      sync.Mutex
	entries []analysislog.Entry
}

func (r *recorder) Record(e analysislog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

var whitelist = []planner.WhitelistEntry{
	{ExerciseID: "1", Name: "Bench Press", BodyPart: planner.BodyPartChest},
	{ExerciseID: "2", Name: "Push-ups", BodyPart: planner.BodyPartChest},
	{ExerciseID: "3", Name: "Overhead Press", BodyPart: planner.BodyPartShoulders},
	{ExerciseID: "4", Name: "Deadlift", BodyPart: planner.BodyPartBack},
	{ExerciseID: "5", Name: "Pull-up", BodyPart: planner.BodyPartBack},
	{ExerciseID: "6", Name: "Biceps Curl", BodyPart: planner.BodyPartArms},
	{ExerciseID: "7", Name: "Squat", BodyPart: planner.BodyPartLegs},
	{ExerciseID: "8", Name: "Lunges", BodyPart: planner.BodyPartLegs},
	{ExerciseID: "9", Name: "Plank", BodyPart: planner.BodyPartCore},
}

var today = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	gate *quota.Gate
	logs *recorder
}

func newFixture(t *testing.T, ai *fakeAI, tpl fakeTemplates, cat fakeCatalog, limit int) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gate := quota.NewGate(quota.NewRedisStore(rdb), time.UTC)
	logs := &recorder{}
	svc := NewService(gate, limit, tpl, cat, ai, logs, time.UTC)
	svc.now = func() time.Time { return today }
	return fixture{svc: svc, gate: gate, logs: logs}
}

func weekRequest(days int) SuggestRequest {
	return SuggestRequest{StartDate: "2026-05-04", EndDate: "2026-05-10", DaysPerWeek: days}
}

const aiPlans = `Here you go:
{"plans":[
 {"name":"Chest","plannedDate":"2026-05-04","exercises":["Bench Press","Push-ups","Overhead Press","Zercher Squat"]},
 {"name":"Back","plannedDate":"2026-05-06","exercises":[{"exerciseName":"Deadlift","sets":[{"weight":"100kg","reps":5,"restSeconds":180}]},"Pull-up","Biceps Curl"]},
 {"name":"Legs","plannedDate":"2026-05-08","exercises":["Squat","Lunges","Plank"]},
]}`

func TestSuggestPlans_UsesModelOutput(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 12)

	sg, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(3))
	require.NoError(t, err)
	assert.False(t, sg.Fallback)
	require.Len(t, sg.Plans, 3)

	assert.Equal(t, "Chest", sg.Plans[0].Name)
	require.Len(t, sg.Plans[0].Exercises, 3, "unknown exercise dropped")
	assert.Equal(t, 100.0, sg.Plans[1].Exercises[0].Sets[0].Weight)

	assert.Equal(t, "2026-05-04", planner.FormatDate(sg.Plans[0].PlannedDate))
	assert.Equal(t, "2026-05-07", planner.FormatDate(sg.Plans[1].PlannedDate))
	assert.Equal(t, "2026-05-10", planner.FormatDate(sg.Plans[2].PlannedDate))

	assert.Contains(t, ai.prompt, "Plan workouts.")
	assert.Contains(t, ai.prompt, "Bench Press")

	usage, err := f.gate.Status(context.Background(), "user-1", 12)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Used)

	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, analysislog.StatusSuccess, f.logs.entries[0].Status)
	assert.Equal(t, "1.0.0", f.logs.entries[0].TemplateVersion)
}

func TestSuggestPlans_AIFailureFallsBack(t *testing.T) {
	ai := &fakeAI{err: apperr.External("AI service unavailable", errors.New("timeout"))}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 12)

	sg, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(4))
	require.NoError(t, err)
	assert.True(t, sg.Fallback)
	require.Len(t, sg.Plans, 4)
	for _, p := range sg.Plans {
		assert.GreaterOrEqual(t, len(p.Exercises), planner.MinExercisesPerPlan)
	}

	usage, err := f.gate.Status(context.Background(), "user-1", 12)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Used)

	require.Len(t, f.logs.entries, 1)
	assert.Equal(t, analysislog.StatusError, f.logs.entries[0].Status)
}

func TestSuggestPlans_MissingTemplateFallsBackWithoutCallingAI(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{err: apperr.NotFound("prompt not found")}, fakeCatalog{entries: whitelist}, 12)

	sg, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(2))
	require.NoError(t, err)
	assert.True(t, sg.Fallback)
	assert.Len(t, sg.Plans, 2)
	assert.Zero(t, ai.calls)
}

func TestSuggestPlans_EmptyWhitelist(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{}, 12)

	sg, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(3))
	require.NoError(t, err)
	assert.NotNil(t, sg.Plans)
	assert.Empty(t, sg.Plans)
	assert.Zero(t, ai.calls)
}

func TestSuggestPlans_CatalogFailure(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{err: errors.New("connection refused")}, 12)

	_, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(3))
	assert.ErrorIs(t, err, apperr.ErrExternalService)
	assert.Zero(t, ai.calls)
}

func TestSuggestPlans_Validation(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 12)

	cases := map[string]SuggestRequest{
		"bad date":      {StartDate: "May 4", EndDate: "2026-05-10", DaysPerWeek: 3},
		"inverted":      {StartDate: "2026-05-10", EndDate: "2026-05-04", DaysPerWeek: 3},
		"past":          {StartDate: "2026-04-20", EndDate: "2026-05-04", DaysPerWeek: 3},
		"zero days":     weekRequest(0),
		"too many days": weekRequest(8),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SuggestPlans(context.Background(), "user-1", req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Zero(t, ai.calls)
}

func TestSuggestPlans_QuotaExhausted(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 1)

	_, err := f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(3))
	require.NoError(t, err)

	_, err = f.svc.SuggestPlans(context.Background(), "user-1", weekRequest(3))
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)
	assert.Equal(t, 1, ai.calls)
}

func TestSuggestPlans_CancelledContext(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 12)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sg, err := f.svc.SuggestPlans(ctx, "user-1", weekRequest(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sg.Plans)
}

func TestSuggestPlans_SingleDayWindow(t *testing.T) {
	ai := &fakeAI{text: aiPlans}
	f := newFixture(t, ai, fakeTemplates{}, fakeCatalog{entries: whitelist}, 12)

	sg, err := f.svc.SuggestPlans(context.Background(), "user-1", SuggestRequest{StartDate: "2026-05-04", EndDate: "2026-05-04", DaysPerWeek: 5})
	require.NoError(t, err)
	require.Len(t, sg.Plans, 1)
	assert.Equal(t, "2026-05-04", planner.FormatDate(sg.Plans[0].PlannedDate))
}
