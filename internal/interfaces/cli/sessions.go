package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BlockchainHB/launchfast-sub000/pkg/client"
)

// NewSessionsCmd creates the "sessions" command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored research sessions",
	}

	cmd.AddCommand(
		newSessionsListCmd(),
		newSessionsGetCmd(),
		newSessionsDeleteCmd(),
		newSessionsRenameCmd(),
	)
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			summaries, err := cliCtx.API.ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 && !strings.EqualFold(cliCtx.OutputFormat, "json") {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions.")
				return nil
			}
			return PrintResult(cmd, sessionList(summaries))
		},
	}
}

func newSessionsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Reconstruct one stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			session, err := cliCtx.API.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			if strings.EqualFold(cliCtx.OutputFormat, "text") {
				fmt.Fprint(cmd.OutOrStdout(), researchSummary(session))
				return nil
			}
			return PrintResult(cmd, session)
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			if err := cliCtx.API.DeleteSession(ctx, args[0]); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("session %s deleted", args[0]))
			return nil
		},
	}
}

func newSessionsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session-id> <name>",
		Short: "Rename a stored session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			if err := cliCtx.API.RenameSession(ctx, args[0], args[1]); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("session %s renamed to %q", args[0], args[1]))
			return nil
		},
	}
}

// sessionList renders session summaries as a table.
type sessionList []client.SessionSummary

func (l sessionList) TableHeaders() []string {
	return []string{"ID", "NAME", "PRODUCTS", "KEYWORDS", "CREATED"}
}

func (l sessionList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{
			s.ID,
			s.Name,
			strings.Join(s.ProductIDs, ","),
			strconv.Itoa(s.KeywordCount),
			s.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}
