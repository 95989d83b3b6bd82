package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/vitiapi/client"
)

// readPassword returns flagVal, or reads one line from stdin when it is empty.
func readPassword(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n') //nolint:errcheck // empty input fails validation server-side.
	return strings.TrimSpace(line)
}

func printCredentials(creds *client.Credentials, save bool) {
	if save {
		path, err := saveProfile(flagURL, creds.APIKey)
		if err != nil {
			fatal("save config", err)
		}
		fmt.Fprintf(os.Stderr, "API key saved to %s\n", path)
	}
	output(creds, creds.APIKey)
}

func newRegisterCmd() *cobra.Command {
	var (
		req  client.RegisterRequest
		save bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its API key",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req.Password = readPassword(req.Password)
			creds, err := apiClient.Accounts.Register(cmd.Context(), &req)
			if err != nil {
				fatal("register", err)
			}
			printCredentials(creds, save)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the API key in ~/.vitiapi/config.yaml")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var (
		req  client.LoginRequest
		save bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a fresh API key",
		Long:  "Log in with email and password. The server issues a new API key and the previous one stops working.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req.Password = readPassword(req.Password)
			creds, err := apiClient.Accounts.Login(cmd.Context(), &req)
			if err != nil {
				fatal("login", err)
			}
			printCredentials(creds, save)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the API key in ~/.vitiapi/config.yaml")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the API key belongs to",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			u, err := apiClient.Accounts.Me(cmd.Context())
			if err != nil {
				fatal("whoami", err)
			}
			output(u, u.Username)
		},
	}
}
