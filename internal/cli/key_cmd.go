package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// keyCmd represents the key command group
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "API key management",
	Long:  `Manage the API key, including showing the current key and resetting it.`,
}

// keyShowCmd shows the current API key
var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current API key",
	Run: func(cmd *cobra.Command, args []string) {
		if apiKeyManager == nil {
			fmt.Fprintln(os.Stderr, "error: API key manager not initialized")
			os.Exit(1)
		}

		currentKey := apiKeyManager.GetCurrentKey()
		if currentKey == "" {
			fmt.Fprintln(os.Stderr, "error: failed to read API key")
			os.Exit(1)
		}

		fmt.Println("Current API key:")
		fmt.Println(currentKey)
	},
}

// keyResetCmd resets the API key
var keyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the API key",
	Long:  `Generate a new API key. The old key stops working immediately. This operation asks for confirmation.`,
	Run: func(cmd *cobra.Command, args []string) {
		if apiKeyManager == nil {
			fmt.Fprintln(os.Stderr, "error: API key manager not initialized")
			os.Exit(1)
		}

		oldKey := apiKeyManager.GetCurrentKey()
		fmt.Println("Current API key:")
		fmt.Println(oldKey)
		fmt.Println()

		fmt.Print("Warning: after the reset, clients still using the old key lose access.\n")
		fmt.Print("Reset the API key? (yes/no): ")

		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}

		input = strings.TrimSpace(strings.ToLower(input))
		if input != "yes" && input != "y" {
			fmt.Println("Cancelled.")
			return
		}

		newKey, err := apiKeyManager.RotateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to reset API key: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("New API key:")
		fmt.Println(newKey)
	},
}

func init() {
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyResetCmd)
}
