package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configPath string

	rootCmd = &cobra.Command{
		Use:   "infinite",
		Short: "Dimensions avatar vending machine on the Mixin network",
		Long: `infinite sells the seven avatars of the Dimensions Classic Collection
at a fixed price. Payments arrive as Mixin transfers whose memo names the
avatar, the change and any refused payment are sent back to the payer.`,
		SilenceUsage: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "~/.mixin/infinite/data", "database directory path")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "~/.mixin/infinite/config.toml", "configuration file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(receiptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
