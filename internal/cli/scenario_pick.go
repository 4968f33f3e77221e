package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/arborsched/arbor/internal/domain"
)

// pickScenario resolves scenarioFlag against graph's scenario set. When
// scenarioFlag is empty and more than one scenario exists, it prompts
// interactively with huh; with exactly one scenario it is chosen without
// prompting.
func pickScenario(graph *domain.Graph, scenarioFlag string) (domain.ScenarioID, error) {
	if scenarioFlag != "" {
		return findScenarioByName(graph, scenarioFlag)
	}

	names := scenarioNames(graph)
	switch len(names) {
	case 0:
		return domain.NoScenario, fmt.Errorf("cli: project declares no scenarios")
	case 1:
		return findScenarioByName(graph, names[0])
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return domain.NoScenario, fmt.Errorf("cli: project declares %d scenarios, pass --scenario to pick one non-interactively", len(names))
	}

	options := make([]huh.Option[string], len(names))
	for i, n := range names {
		options[i] = huh.NewOption(n, n)
	}

	var chosen string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which scenario?").
				Options(options...).
				Value(&chosen),
		),
	)
	if err := form.Run(); err != nil {
		return domain.NoScenario, fmt.Errorf("cli: scenario picker: %w", err)
	}
	return findScenarioByName(graph, chosen)
}
