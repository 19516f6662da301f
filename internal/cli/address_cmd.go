package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// addressCmd represents the address command group
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Local address management",
	Long:  `Manage locally-hosted addresses: create, list, delete, and configure the outbound relay.`,
}

// addressCreateCmd creates a new local address
var addressCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a local address",
	Long:  `Interactively create a local address from a local part and a domain.`,
	Run: func(cmd *cobra.Command, args []string) {
		if accountService == nil {
			fmt.Fprintln(os.Stderr, "error: account service not initialized")
			os.Exit(1)
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Local part (the name before @): ")
		localPart, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		localPart = strings.TrimSpace(localPart)
		if localPart == "" {
			fmt.Fprintln(os.Stderr, "error: local part must not be empty")
			os.Exit(1)
		}

		fmt.Print("Domain: ")
		domain, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		domain = strings.TrimSpace(domain)
		if domain == "" {
			fmt.Fprintln(os.Stderr, "error: domain must not be empty")
			os.Exit(1)
		}

		rec, err := accountService.Local().CreateAddress(localPart, domain)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to create address: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Created local address %s\n", rec.Address)
	},
}

// addressListCmd lists all local addresses
var addressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local addresses",
	Run: func(cmd *cobra.Command, args []string) {
		if accountService == nil {
			fmt.Fprintln(os.Stderr, "error: account service not initialized")
			os.Exit(1)
		}

		addresses, err := accountService.Local().Addresses()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to list addresses: %v\n", err)
			os.Exit(1)
		}

		if len(addresses) == 0 {
			fmt.Println("No local addresses.")
			return
		}

		fmt.Printf("%-40s %-10s %s\n", "ADDRESS", "RELAY", "CREATED")
		for _, a := range addresses {
			relay := "off"
			if a.HasRelay() {
				relay = "on"
			}
			fmt.Printf("%-40s %-10s %s\n", a.Address, relay, a.CreatedAt.Format("2006-01-02 15:04"))
		}
	},
}

// addressDeleteCmd deletes a local address
var addressDeleteCmd = &cobra.Command{
	Use:   "delete <address>",
	Short: "Delete a local address and its messages",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if accountService == nil {
			fmt.Fprintln(os.Stderr, "error: account service not initialized")
			os.Exit(1)
		}
		address := args[0]

		fmt.Printf("Warning: this deletes %s and every message it holds.\n", address)
		fmt.Print("Continue? (yes/no): ")

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

		if err := accountService.Local().DeleteAddress(address); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to delete address: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Deleted %s\n", address)
	},
}

// addressRelayCmd configures the outbound relay for a local address
var addressRelayCmd = &cobra.Command{
	Use:   "relay <address>",
	Short: "Configure the outbound relay for a local address",
	Long:  `Interactively set the SMTP relay a local address uses to reach external recipients. The relay secret is read without echo and stored encrypted.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if accountService == nil {
			fmt.Fprintln(os.Stderr, "error: account service not initialized")
			os.Exit(1)
		}
		address := args[0]

		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Relay server: ")
		server, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		server = strings.TrimSpace(server)
		if server == "" {
			fmt.Fprintln(os.Stderr, "error: relay server must not be empty")
			os.Exit(1)
		}

		fmt.Print("Relay port (465 for TLS, 587 for STARTTLS): ")
		portStr, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		port, err := strconv.Atoi(strings.TrimSpace(portStr))
		if err != nil || port <= 0 || port > 65535 {
			fmt.Fprintln(os.Stderr, "error: invalid port")
			os.Exit(1)
		}

		fmt.Print("Relay username: ")
		username, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		username = strings.TrimSpace(username)

		fmt.Print("Relay password: ")
		secretBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: failed to read password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()

		if err := accountService.Local().SetRelay(address, server, port, username, string(secretBytes), true); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to configure relay: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Relay enabled for %s via %s:%d\n", address, server, port)
	},
}

func init() {
	addressCmd.AddCommand(addressCreateCmd)
	addressCmd.AddCommand(addressListCmd)
	addressCmd.AddCommand(addressDeleteCmd)
	addressCmd.AddCommand(addressRelayCmd)
}
