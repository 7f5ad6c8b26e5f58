package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// profileCmd shows the social profile of the logged-in account.
func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the profile of the logged-in account",
		Run: func(cmd *cobra.Command, args []string) {
			profile, err := newAPIClient().GetSocialProfile(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Failed to fetch profile")
				cmd.PrintErrln("Error:", err)
				return
			}
			cmd.Println("Display name:", profile.DisplayName)
			cmd.Println("Full name:   ", profile.FullName)
			cmd.Println("Username:    ", profile.UserName)
			if profile.Location != "" {
				cmd.Println("Location:    ", profile.Location)
			}
		},
	}
}

// devicesCmd lists the devices registered to the account.
func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the devices registered to the account",
		Run: func(cmd *cobra.Command, args []string) {
			devices, err := newAPIClient().GetDevices(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Failed to fetch devices")
				cmd.PrintErrln("Error:", err)
				return
			}
			if len(devices) == 0 {
				cmd.Println("No devices registered.")
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Device ID", "Name", "Firmware", "Last Sync"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			for _, d := range devices {
				table.Append([]string{
					strconv.FormatInt(d.DeviceID, 10),
					d.ProductDisplayName,
					d.FirmwareVersion,
					d.LastSyncTime,
				})
			}
			table.Render()
		},
	}
}
