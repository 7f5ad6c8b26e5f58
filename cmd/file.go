package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tormoder/fit"
)

// fileCmd groups local file operations.
func fileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Perform operations on downloaded files",
	}

	cmd.AddCommand(fileInfoCmd())

	return cmd
}

// fileInfoCmd prints a summary of a FIT file. Decoding is delegated to the
// FIT SDK; this command only renders what the decoder returns.
func fileInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file.fit]",
		Short: "Show a summary of a FIT file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}
			defer f.Close()

			fitFile, err := fit.Decode(f)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to decode FIT file")
				cmd.PrintErrln("Error: Failed to decode FIT file:", err)
				return
			}

			cmd.Println("File type:   ", fitFile.FileId.Type)
			cmd.Println("Manufacturer:", fitFile.FileId.Manufacturer)
			cmd.Println("Created:     ", fitFile.FileId.TimeCreated.Format(time.RFC1123))

			activity, err := fitFile.Activity()
			if err != nil {
				// Not an activity file; the header above is all we can show.
				return
			}
			cmd.Println("Records:     ", len(activity.Records))
			for i, session := range activity.Sessions {
				elapsed := time.Duration(session.TotalElapsedTime) * time.Millisecond
				cmd.Printf("Session %d:    %v, started %s, elapsed %s\n",
					i+1, session.Sport, session.StartTime.Format(time.RFC1123), elapsed)
			}
		},
	}
}
