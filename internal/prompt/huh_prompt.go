package prompt

import (
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/amterp/tally/internal/model"
)

// HuhPrompter implements Prompter using the charmbracelet/huh library.
type HuhPrompter struct{}

// NewHuhPrompter creates a new huh-based prompter.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{}
}

func (p *HuhPrompter) Select(title string, options []string) (string, error) {
	var result string

	opts := make([]huh.Option[string], len(options))
	for i, opt := range options {
		opts[i] = huh.NewOption(opt, opt)
	}

	err := huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Value(&result).
		Run()

	return result, err
}

func (p *HuhPrompter) Input(title string, defaultValue string) (string, error) {
	var result string

	input := huh.NewInput().
		Title(title).
		Value(&result)

	if defaultValue != "" {
		result = defaultValue
	}

	err := input.Run()
	return result, err
}

func (p *HuhPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	result := defaultValue

	err := huh.NewConfirm().
		Title(title).
		Value(&result).
		Run()

	return result, err
}

func (p *HuhPrompter) CounterDraft(draft *model.Draft, colors []string) error {
	colorOpts := make([]huh.Option[string], len(colors))
	for i, name := range colors {
		colorOpts[i] = huh.NewOption(name, name)
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder(model.DefaultCounterName).
				Value(&draft.Name),
			huh.NewInput().
				Title("Initial value").
				Description("Anything that isn't a whole number starts at 0").
				Value(&draft.InitialText),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOpts...).
				Value(&draft.ColorName),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}
