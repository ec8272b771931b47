package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
	"github.com/nyckel/nyckel-go/pkg/nyckelclient"
)

type storedConfig struct {
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret"`
	ServerURL    string `yaml:"server-url,omitempty"`
}

// NewLoginCommand creates the login command. It verifies the credentials by
// fetching a token, then persists them to the config file.
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		serverURL    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store and verify API credentials",
		Long:  "Verify OAuth2 client credentials against the API and save them to the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			if clientID == "" {
				fmt.Print("Client ID: ")

				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading client ID: %w", err)
				}

				clientID = strings.TrimSpace(line)
			}

			if clientSecret == "" {
				fmt.Print("Client secret: ")

				secret, err := term.ReadPassword(int(syscall.Stdin))

				fmt.Println()

				if err != nil {
					return fmt.Errorf("reading client secret: %w", err)
				}

				clientSecret = strings.TrimSpace(string(secret))
			}

			if serverURL == "" {
				serverURL = viper.GetString("server-url")
			}

			client, err := nyckelclient.New(&nyckel.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				ServerURL:    serverURL,
			})
			if err != nil {
				return err
			}

			// A credentials check: any authenticated call will do, and a
			// missing function proves the token worked.
			_, err = client.Functions().Get(cmd.Context(), "credential-check")
			if err != nil && !isExpectedCredentialCheckError(err) {
				return fmt.Errorf("verifying credentials: %w", err)
			}

			err = saveConfig(storedConfig{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				ServerURL:    serverURL,
			})
			if err != nil {
				return err
			}

			fmt.Println("Credentials verified and saved.")

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "API base URL")

	return cmd
}

func isExpectedCredentialCheckError(err error) bool {
	return errors.Is(err, nyckel.ErrFunctionNotFound) || errors.Is(err, nyckel.ErrInsufficientAccess)
}

func saveConfig(config storedConfig) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}

	configDir := filepath.Join(home, ".nyckel")

	err = os.MkdirAll(configDir, 0o700)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(configDir, "config.yml")

	err = os.WriteFile(path, raw, 0o600)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
