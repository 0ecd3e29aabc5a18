package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-txenvelope/cmd/envelope"
	"github/chapool/go-txenvelope/cmd/feepayer"
	"github/chapool/go-txenvelope/cmd/keyauth"
	"github/chapool/go-txenvelope/cmd/keystore"
	"github/chapool/go-txenvelope/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "txenv",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Builds, signs, sponsors and inspects AA (0x76) and fee token (0x77)
transaction envelopes. Requires configuration through ENV.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		envelope.New(),
		feepayer.New(),
		keyauth.New(),
		keystore.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
