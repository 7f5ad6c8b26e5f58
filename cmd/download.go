package cmd

import (
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// downloadCmd fetches the original upload (zip with the FIT file) of one
// activity.
func downloadCmd() *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "download [activityID]",
		Short: "Download the original file of an activity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			activityID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				cmd.PrintErrf("Error: invalid activity ID %q.\n", args[0])
				return
			}

			path, err := newAPIClient().DownloadActivity(cmd.Context(), activityID, destDir, cmd.OutOrStdout())
			if err != nil {
				log.Error().Err(err).Int64("activity_id", activityID).Msg("Download failed")
				cmd.PrintErrln("Error:", err)
				return
			}
			cmd.Println("Saved to", path)
		},
	}

	cmd.Flags().StringVarP(&destDir, "dir", "d", ".", "Directory to save the downloaded file in")

	return cmd
}
