package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlockchainHB/launchfast-sub000/pkg/client"
)

// researchFlags holds the per-run tunables; only flags the user actually set
// are forwarded, so server defaults stay in charge of everything else.
type researchFlags struct {
	name         string
	minVolume    int
	maxVolume    int
	maxTop15     int
	minRanking   int
	maxStrength  float64
	minGapVolume int
	maxGapPos    int
	focusVolume  int
	noEnhance    bool
}

// NewResearchCmd creates the "research" command.
func NewResearchCmd() *cobra.Command {
	flags := &researchFlags{}

	cmd := &cobra.Command{
		Use:   "research <asin> [competitor-asin...]",
		Short: "Run keyword research for a product against its competitors",
		Long: "Runs the full research pipeline for the given products.  The first ASIN\n" +
			"is the primary (your) product; the rest are competitors.  Up to 10 ASINs.",
		Args: cobra.RangeArgs(1, 10),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResearch(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "display name for the stored session")
	f.IntVar(&flags.minVolume, "min-volume", 0, "minimum search volume for opportunities")
	f.IntVar(&flags.maxVolume, "max-volume", 0, "maximum search volume for opportunities")
	f.IntVar(&flags.maxTop15, "max-top15", 0, "maximum competitors ranked in the top 15")
	f.IntVar(&flags.minRanking, "min-ranking", 0, "minimum competitors ranking for a keyword")
	f.Float64Var(&flags.maxStrength, "max-strength", 0, "maximum competitor strength score")
	f.IntVar(&flags.minGapVolume, "min-gap-volume", 0, "minimum search volume for gap records")
	f.IntVar(&flags.maxGapPos, "max-gap-position", 0, "worst position still counted as ranking")
	f.IntVar(&flags.focusVolume, "focus-volume", 0, "volume threshold for focus keywords")
	f.BoolVar(&flags.noEnhance, "no-enhance", false, "skip the keyword enrichment pass")

	return cmd
}

func runResearch(cmd *cobra.Command, args []string, flags *researchFlags) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	req := client.ResearchRequest{
		ProductIDs: args,
		Name:       flags.name,
		Options:    buildOptions(cmd, flags),
	}

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	if cliCtx.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "researching %d product(s): %s\n",
			len(args), strings.Join(args, ", "))
	}

	session, err := cliCtx.API.Research(ctx, req)
	if err != nil {
		return err
	}

	if strings.EqualFold(cliCtx.OutputFormat, "text") {
		fmt.Fprint(cmd.OutOrStdout(), researchSummary(session))
		return nil
	}
	return PrintResult(cmd, session)
}

// buildOptions returns nil when no tunable flag was set, keeping the request
// body free of zero values that would mask server defaults.
func buildOptions(cmd *cobra.Command, flags *researchFlags) *client.Options {
	changed := false
	for _, name := range []string{
		"min-volume", "max-volume", "max-top15", "min-ranking", "max-strength",
		"min-gap-volume", "max-gap-position", "focus-volume", "no-enhance",
	} {
		if cmd.Flags().Changed(name) {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	return &client.Options{
		MinSearchVolume:       flags.minVolume,
		MaxSearchVolume:       flags.maxVolume,
		MaxCompetitorsInTop15: flags.maxTop15,
		MinCompetitorsRanking: flags.minRanking,
		MaxCompetitorStrength: flags.maxStrength,
		MinGapVolume:          flags.minGapVolume,
		MaxGapPosition:        flags.maxGapPos,
		FocusVolumeThreshold:  flags.focusVolume,
		EnhanceResults:        !flags.noEnhance,
	}
}

// researchSummary renders the human-readable run report.
func researchSummary(s *client.Session) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Session %s", s.ID)
	if s.Name != "" {
		fmt.Fprintf(&sb, " (%q)", s.Name)
	}
	sb.WriteString("\n")

	succeeded := 0
	for _, p := range s.Products {
		if p.Status == client.StatusSuccess {
			succeeded++
		}
	}
	fmt.Fprintf(&sb, "Products:      %d collected, %d succeeded\n", len(s.Products), succeeded)
	fmt.Fprintf(&sb, "Keywords:      %d aggregated\n", len(s.Aggregated))

	if s.Opportunities != nil {
		fmt.Fprintf(&sb, "Opportunities: %d (of %d with competition)\n",
			len(s.Opportunities.Opportunities),
			len(s.Opportunities.AllKeywordsWithCompetition))
	}
	if s.Gaps != nil {
		fmt.Fprintf(&sb, "Gaps:          %d across %d competitors (potential volume %d)\n",
			s.Gaps.Summary.TotalGaps,
			s.Gaps.CompetitorsAnalyzed,
			s.Gaps.Summary.TotalGapPotential)
	}

	if s.Opportunities != nil && len(s.Opportunities.Opportunities) > 0 {
		top := s.Opportunities.Opportunities
		if len(top) > 10 {
			top = top[:10]
		}
		sb.WriteString("\nTop opportunities:\n")
		sb.WriteString(FormatTable(
			[]string{"KEYWORD", "VOLUME", "CPC", "TYPE"},
			opportunityRows(top),
		))
	}

	return sb.String()
}

func opportunityRows(opportunities []client.OpportunityCandidate) [][]string {
	rows := make([][]string, 0, len(opportunities))
	for _, o := range opportunities {
		rows = append(rows, []string{
			o.Keyword,
			strconv.Itoa(o.SearchVolume),
			fmt.Sprintf("%.2f", o.AvgCPC),
			o.Type,
		})
	}
	return rows
}
