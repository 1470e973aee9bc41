package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finch-bank/finchctl/internal/domain"
	"github.com/finch-bank/finchctl/internal/output"
)

var investRiskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Show your risk profile",
	Long: `Show the current risk assessment, or submit a new one with --answer.

Examples:
  finchctl invest risk
  finchctl invest risk submit -a horizon=3 -a tolerance=4 -a experience=2`,
	RunE: runInvestRisk,
}

var investRiskSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit risk questionnaire answers",
	RunE:  runInvestRiskSubmit,
}

var investRecommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Product suggestions for your risk profile",
	RunE:  runInvestRecommendations,
}

func init() {
	investCmd.AddCommand(investRiskCmd)
	investRiskCmd.AddCommand(investRiskSubmitCmd)
	investCmd.AddCommand(investRecommendationsCmd)

	investRiskSubmitCmd.Flags().StringArrayP("answer", "a", nil, "questionnaire answer as question=score (repeatable)")
	_ = investRiskSubmitCmd.MarkFlagRequired("answer")
}

func runInvestRisk(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	assessment, err := eng.RiskAssessment(ctx)
	if err != nil {
		if domain.ErrorKindOf(err) == domain.ErrKindNotFound {
			printer.Warning("No risk assessment on file")
			printer.Info("Complete one with 'finchctl invest risk submit'")
			return nil
		}
		return err
	}

	printRiskAssessment(printer, assessment)
	printer.PrintHints("invest risk")
	return nil
}

func runInvestRiskSubmit(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetStringArray("answer")
	answers, err := parseAnswers(raw)
	if err != nil {
		return err
	}

	assessment, err := eng.Mutations.SubmitRiskAssessment(ctx, answers)
	if err != nil {
		return err
	}

	printer.Success("Risk assessment recorded")
	printRiskAssessment(printer, assessment)
	return nil
}

func runInvestRecommendations(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	ctx := cmd.Context()

	if err := ensureSession(ctx); err != nil {
		return err
	}

	recs, err := eng.Recommendations(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		printer.Warning("No recommendations")
		printer.Info("Complete a risk assessment with 'finchctl invest risk submit'")
		return nil
	}

	table := output.NewQuietTable(quiet, "PRODUCT", "CATEGORY", "RISK", "REASON")
	for _, r := range recs {
		table.AddRow(r.Product.Name, r.Product.Category, fmt.Sprintf("%d/5", r.Product.RiskLevel), r.Reason)
	}
	table.Render()
	return nil
}

func printRiskAssessment(printer *output.Printer, a *domain.RiskAssessment) {
	printer.Header("Risk profile")
	printer.Print("  profile:   %s", printer.Bold(a.Profile))
	printer.Print("  score:     %d", a.Score)
	printer.Print("  completed: %s", a.CompletedAt.Format("2006-01-02"))
}

// parseAnswers converts repeated question=score flags to the submission map.
func parseAnswers(raw []string) (map[string]int, error) {
	answers := make(map[string]int, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid answer %q: expected question=score", pair)
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid score in %q: %w", pair, err)
		}
		answers[key] = score
	}
	return answers, nil
}
