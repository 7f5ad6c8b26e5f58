package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// divesCmd groups the dive-related subcommands.
func divesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dives",
		Short: "Work with logged dives",
	}

	cmd.AddCommand(divesListCmd())

	return cmd
}

// divesListCmd shows one page of the dive log.
func divesListCmd() *cobra.Command {
	var start, limit int
	var allTypes bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged dives, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			activityType := "diving"
			if allTypes {
				activityType = ""
			}

			activities, err := newAPIClient().ListActivities(cmd.Context(), start, limit, activityType)
			if err != nil {
				log.Error().Err(err).Msg("Failed to fetch activities")
				cmd.PrintErrln("Error:", err)
				return
			}
			if len(activities) == 0 {
				cmd.Println("No activities found.")
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Date", "Name", "Type", "Duration", "Max Depth"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			for _, a := range activities {
				depth := ""
				if a.MaxDepthMeters > 0 {
					depth = fmt.Sprintf("%.1f m", a.MaxDepthMeters)
				}
				table.Append([]string{
					strconv.FormatInt(a.ActivityID, 10),
					a.StartTimeLocal,
					a.ActivityName,
					a.ActivityType.TypeKey,
					(time.Duration(a.Duration) * time.Second).String(),
					depth,
				})
			}
			table.Render()
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "Offset into the activity list")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of activities to list")
	cmd.Flags().BoolVarP(&allTypes, "all", "a", false, "List all activity types, not only dives? [true, false]")

	return cmd
}
