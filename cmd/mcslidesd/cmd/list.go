package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the presentations a running mcslidesd holds",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			log.Fatalf("%s", err)
		}

		summaries, err := client.List()
		if err != nil {
			log.Fatalf("Unable to list presentations: %s", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		defer table.Close()

		table.Header([]string{"ID", "Name", "Slides", "Placeholder", "Converted"})
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.ID,
				s.OriginalName,
				strconv.Itoa(s.SlideCount),
				strconv.FormatBool(s.IsPlaceholder),
				s.ConvertedAt.Local().Format(time.DateTime),
			})
		}

		if err := table.Bulk(rows); err != nil {
			log.Fatalf("Unable to format presentations: %s", err)
		}

		if err := table.Render(); err != nil {
			log.Fatalf("Unable to print presentations: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
