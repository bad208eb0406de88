package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/evaluation"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
)

func main() {
	casesPath := flag.String("cases", "config/golden_cases.yaml", "path to the golden case file")
	rulesPath := flag.String("rules", os.Getenv("TRIAGE_RULES_PATH"), "triage rules file; empty uses the compiled-in rules")
	minAccuracy := flag.Float64("min-accuracy", 0.9, "minimum tier accuracy")
	minRecall := flag.Float64("min-recall", 0.8, "minimum average tag recall")
	maxUnder := flag.Int("max-under-triaged", 0, "maximum under-triaged cases of any tier")
	flag.Parse()

	observability.InitLogger("triage-evaluate", "development")
	logger := observability.GetLogger()

	// Allow running from the repository root as well as backend/.
	if _, err := os.Stat(*casesPath); err != nil {
		if _, altErr := os.Stat("backend/" + *casesPath); altErr == nil {
			*casesPath = "backend/" + *casesPath
		}
	}

	rules, err := triage.LoadRules(*rulesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load triage rules")
	}

	cases, err := evaluation.LoadGoldenCases(*casesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load golden cases")
	}
	if err := evaluation.ValidateGoldenCases(cases); err != nil {
		logger.Fatal().Err(err).Msg("invalid golden cases")
	}

	runner := evaluation.NewRunner(triage.NewEngine(rules, nil))
	summary, err := runner.Run(context.Background(), cases)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinTierAccuracy: *minAccuracy,
		MinTagRecall:    *minRecall,
		MaxUnderTriaged: *maxUnder,
	})
	if violations := guardrails.Check(summary); len(violations) > 0 {
		for _, v := range violations {
			logger.Error().Str("violation", v).Msg("guardrail failed")
		}
		os.Exit(1)
	}
	logger.Info().Int("cases", summary.TotalCases).Float64("tier_accuracy", summary.TierAccuracy).Msg("evaluation passed")
}
