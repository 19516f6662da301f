package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Engineernoob/Term-Mail/internal/api/middleware"
	"github.com/Engineernoob/Term-Mail/internal/config"
	"github.com/Engineernoob/Term-Mail/internal/services"
)

var (
	cfg            *config.Config
	apiKeyManager  *middleware.APIKeyManager
	accountService *services.AccountService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "term-mail",
	Short: "Unified mail backend service",
	Long: `Term-Mail is a mail access backend that exposes remote mailboxes
and locally-hosted addresses through one API.

This command line tool provides:
  - key management: show and reset the API key
  - address management: create, list and delete local addresses,
    and configure their outbound relay

Examples:
  term-mail key show                     # show the current API key
  term-mail key reset                    # reset the API key
  term-mail address create               # create a local address
  term-mail address list                 # list local addresses
  term-mail address relay <address>      # configure an outbound relay`,
}

// Execute runs the CLI with the provided services and config
func Execute(accounts *services.AccountService, config *config.Config) {
	cfg = config
	accountService = accounts

	var err error
	apiKeyManager, err = middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize API key manager: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(addressCmd)
}
