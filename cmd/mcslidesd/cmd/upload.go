package cmd

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload presentations to a running mcslidesd and print the slides",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			log.Fatalf("%s", err)
		}

		failed := false
		for _, path := range args {
			result, err := client.Upload(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
				failed = true
				continue
			}

			fmt.Printf("%s: id %s, %d slides (%s)\n", path, result.ID, result.SlideCount, result.Status)
			for _, slide := range result.Slides {
				fmt.Printf("  %s\n", slide)
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
