package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbferry/dbferry/config"
	"github.com/dbferry/dbferry/internal"
	"github.com/dbferry/dbferry/pkg/lifecycle"
)

var (
	rootCmd = &cobra.Command{
		Use:   "dbferry [OPTIONS]",
		Short: "Offline vulnerability database lifecycle",
		Long: `Dbferry keeps an offline copy of the Trivy vulnerability database fresh,
               backed up and packaged for transport into disconnected environments`,
	}

	confFile   string
	skipAux    bool
	reset      bool
	withAux    bool
	packName   string
	maxAgeDays int
	retain     int
	limit      int
	outfile    string
	format     string
	severities []string
)

func loadConf() *config.LifecycleConfig {
	conf, err := config.LoadConfig(confFile)
	if err != nil {
		log.Printf("Cannot load configuration, error: %v", err)
		os.Exit(1)
	}
	return conf
}

func exitOn(err error) {
	if err == nil {
		return
	}

	log.Printf("%v", err)
	os.Exit(lifecycle.ExitCode(err))
}

func Execute() error {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Initial fetch, verify and promote of the dataset",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "skipAux", skipAux)

			exitOn(internal.DoSetup(ctx, loadConf()))
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Run a full update cycle: fetch, verify, backup, promote",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "skipAux", skipAux)
			ctx = context.WithValue(ctx, "reset", reset)

			exitOn(internal.DoUpdate(ctx, loadConf()))
		},
	}

	packageCmd := &cobra.Command{
		Use:   "package",
		Short: "Produce a checksummed distribution package from the active dataset",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "withAux", withAux)
			ctx = context.WithValue(ctx, "name", packName)

			exitOn(internal.DoPackage(ctx, loadConf()))
		},
	}

	checkAgeCmd := &cobra.Command{
		Use:   "check-age",
		Short: "Report the active dataset's age and staleness",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "maxAge", maxAgeDays)

			exitOn(internal.DoCheckAge(ctx, loadConf()))
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune-backups",
		Short: "Remove backups beyond the retention count",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "retain", retain)

			exitOn(internal.DoPrune(ctx, loadConf()))
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded update cycles",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "limit", limit)

			exitOn(internal.DoHistory(ctx, loadConf()))
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan an image with the offline dataset",
		Long: `Examples:
  # Scan a container image offline
  $ dbferry scan nginx:latest

  # Only critical and high findings, saved as JSON
  $ dbferry scan -f json -s critical,high -o nginx.json nginx:latest`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Println("Require at least 1 argument.")
				os.Exit(1)
			}

			ctx := config.Ctx
			ctx = context.WithValue(ctx, "format", format)
			ctx = context.WithValue(ctx, "severities", severities)
			ctx = context.WithValue(ctx, "output", outfile)

			exitOn(internal.DoScan(ctx, loadConf(), args[0]))
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List local docker images",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitOn(internal.DoList(config.Ctx, loadConf()))
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versions)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&confFile, "config", "c", "", "path of configuration file")

	setupCmd.Flags().BoolVar(&skipAux, "skip-aux", false, "skip the auxiliary dataset")

	updateCmd.Flags().BoolVar(&skipAux, "skip-aux", false, "skip the auxiliary dataset")
	updateCmd.Flags().BoolVarP(&reset, "reset", "a", false, "reset the dataset state before refetching")

	packageCmd.Flags().BoolVar(&withAux, "with-auxiliary", false, "include the auxiliary dataset")
	packageCmd.Flags().StringVar(&packName, "name", "", "package name")

	checkAgeCmd.Flags().IntVar(&maxAgeDays, "max-age-days", 7, "staleness threshold in days")

	pruneCmd.Flags().IntVar(&retain, "retain", 5, "number of backups to keep")

	historyCmd.Flags().IntVarP(&limit, "number", "n", 20, "number of cycles to show")

	scanCmd.Flags().StringVarP(&format, "format", "f", "table", "output format")
	scanCmd.Flags().StringSliceVarP(&severities, "severity", "s", nil, "severity levels to include")
	scanCmd.Flags().StringVarP(&outfile, "output", "o", "", "output file name")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(checkAgeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	return rootCmd.Execute()
}
