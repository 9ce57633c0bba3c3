package cli

import (
	"errors"
	"testing"

	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/logging"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/prompt"
	"github.com/amterp/tally/internal/resolver"
	"github.com/amterp/tally/internal/service"
	"github.com/amterp/tally/internal/store"
	"github.com/amterp/tally/testutil"
)

// scriptedPrompter answers prompts from fixed values.
type scriptedPrompter struct {
	selects []string
	inputs  []string
	draft   *model.Draft
	err     error
}

func (p *scriptedPrompter) Select(title string, options []string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	answer := p.selects[0]
	p.selects = p.selects[1:]
	return answer, nil
}

func (p *scriptedPrompter) Input(title string, defaultValue string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	answer := p.inputs[0]
	p.inputs = p.inputs[1:]
	return answer, nil
}

func (p *scriptedPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	return false, p.err
}

func (p *scriptedPrompter) CounterDraft(draft *model.Draft, colors []string) error {
	if p.err != nil {
		return p.err
	}
	*draft = *p.draft
	return nil
}

// setupTestApp builds an App over a temp data dir without touching the
// user's global config.
func setupTestApp(t *testing.T, prompter prompt.Prompter) *App {
	t.Helper()

	paths := testutil.NewTestPaths(t.TempDir())
	counterStore := store.NewCounterStore(paths)
	counters := service.NewCounterService(counterStore)
	t.Cleanup(func() { counters.Close() })

	return &App{
		GlobalConfig:    &model.GlobalConfig{},
		Paths:           paths,
		CounterStore:    counterStore,
		Prompter:        prompter,
		Logger:          logging.Discard(),
		CounterService:  counters,
		DoctorService:   service.NewDoctorService(counterStore),
		CounterResolver: resolver.NewCounterResolver(counters),
	}
}

func TestBuildDraft_FlagsSkipPrompt(t *testing.T) {
	app := setupTestApp(t, &scriptedPrompter{err: errors.New("should not prompt")})

	draft, err := buildDraft(app, "Laps", "10", "red")
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	want := model.Draft{Name: "Laps", InitialText: "10", ColorName: "Red"}
	if draft != want {
		t.Errorf("draft = %+v, want %+v", draft, want)
	}
}

func TestBuildDraft_PromptsWithoutInput(t *testing.T) {
	answer := model.Draft{Name: "Push-ups", InitialText: "5", ColorName: "Teal"}
	app := setupTestApp(t, &scriptedPrompter{draft: &answer})

	draft, err := buildDraft(app, "", "", "")
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if draft != answer {
		t.Errorf("draft = %+v, want %+v", draft, answer)
	}
}

func TestBuildDraft_NonInteractiveUsesDefaults(t *testing.T) {
	app := setupTestApp(t, &prompt.NoopPrompter{})

	draft, err := buildDraft(app, "", "", "")
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if draft != model.NewDraft() {
		t.Errorf("draft = %+v, want defaults", draft)
	}
}

func TestBuildDraft_Cancelled(t *testing.T) {
	app := setupTestApp(t, &scriptedPrompter{err: prompt.ErrCancelled})

	_, err := buildDraft(app, "", "", "")
	if !isCancelled(err) {
		t.Errorf("Expected cancellation, got %v", err)
	}
}

func TestApplyStep(t *testing.T) {
	app := setupTestApp(t, &prompt.NoopPrompter{})
	app.CounterService.Add("Laps", "10", "Red")
	app.CounterService.Add("Push-ups", "0", "Green")

	tests := []struct {
		op    stepOp
		ref   string
		name  string
		value int64
	}{
		{stepIncrement, "laps", "Laps", 11},
		{stepIncrement, "1", "Laps", 12},
		{stepDecrement, "push", "Push-ups", -1},
		{stepReset, "Laps", "Laps", 10},
	}

	for _, tt := range tests {
		counter, err := applyStep(app, tt.op, tt.ref)
		if err != nil {
			t.Fatalf("%s %q failed: %v", tt.op, tt.ref, err)
		}
		if counter.Name != tt.name || counter.Value != tt.value {
			t.Errorf("%s %q = %s/%d, want %s/%d", tt.op, tt.ref, counter.Name, counter.Value, tt.name, tt.value)
		}
	}
}

func TestApplyStep_UnknownCounter(t *testing.T) {
	app := setupTestApp(t, &prompt.NoopPrompter{})

	_, err := applyStep(app, stepIncrement, "ghost")
	if !tallyerr.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if exitCode(err) != 3 {
		t.Errorf("exitCode = %d, want 3", exitCode(err))
	}
}

func TestEditInputFromFlags(t *testing.T) {
	if input := editInputFromFlags("", "", ""); input != (service.EditCounterInput{}) {
		t.Errorf("Expected empty input, got %+v", input)
	}

	input := editInputFromFlags("Sets", "purple", "")
	if input.Name == nil || *input.Name != "Sets" {
		t.Errorf("Name = %v, want Sets", input.Name)
	}
	if input.ColorName == nil || *input.ColorName != "Purple" {
		t.Errorf("ColorName = %v, want Purple", input.ColorName)
	}
	if input.InitialValueText != nil {
		t.Errorf("InitialValueText = %v, want nil", input.InitialValueText)
	}
}

func TestPromptEdit(t *testing.T) {
	app := setupTestApp(t, &scriptedPrompter{
		selects: []string{editFieldInitial},
		inputs:  []string{"7"},
	})
	counter := app.CounterService.Add("Laps", "0", "")

	input, err := promptEdit(app, counter)
	if err != nil {
		t.Fatalf("promptEdit failed: %v", err)
	}
	if input.InitialValueText == nil || *input.InitialValueText != "7" {
		t.Errorf("InitialValueText = %v, want 7", input.InitialValueText)
	}
	if input.Name != nil || input.ColorName != nil {
		t.Errorf("Expected only the initial value to change, got %+v", input)
	}
}

func TestResolveDataDir(t *testing.T) {
	cfg := &model.GlobalConfig{DataLocation: "/from/config"}

	if got := resolveDataDir("/from/flag", cfg); got != "/from/flag" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := resolveDataDir("", cfg); got != "/from/config" {
		t.Errorf("config should apply without flag, got %q", got)
	}
	if got := resolveDataDir("", nil); got != "" {
		t.Errorf("Expected default (empty), got %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tallyerr.CounterNotFound("x"), 3},
		{tallyerr.InvalidField("name", "bad"), 2},
		{tallyerr.AmbiguousCounter("p", []string{"#1 a", "#2 b"}), 2},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPositionOf(t *testing.T) {
	counters := []model.Counter{{ID: "a"}, {ID: "b"}}
	if got := positionOf(counters, "b"); got != 2 {
		t.Errorf("positionOf(b) = %d, want 2", got)
	}
	if got := positionOf(counters, "z"); got != 0 {
		t.Errorf("positionOf(z) = %d, want 0", got)
	}
}
