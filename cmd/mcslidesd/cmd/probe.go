package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/materials-commons/mcslides/pkg/config"
	"github.com/spf13/cobra"
)

var installMissing bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check for the document converter on this host",
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.MustLoadSettings(cfgFile)
		probe := newProbe(settings)
		ctx := context.Background()

		if !probe.IsAvailable() {
			if !installMissing {
				fmt.Println("converter: not found")
				os.Exit(1)
			}

			if !probe.Install(ctx) {
				fmt.Println("converter: not found, install failed")
				os.Exit(1)
			}
		}

		version, err := probe.Version(ctx)
		if err != nil {
			log.Fatalf("Converter at %s failed its version check: %s", probe.ConverterPath(), err)
		}

		fmt.Printf("converter: %s\nversion:   %s\n", probe.ConverterPath(), version)
	},
}

func init() {
	probeCmd.Flags().BoolVar(&installMissing, "install", false, "run the install command when the converter is missing")
	rootCmd.AddCommand(probeCmd)
}
