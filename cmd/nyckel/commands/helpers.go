package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nyckel/nyckel-go/pkg/nyckel"
	"github.com/nyckel/nyckel-go/pkg/nyckelclient"
)

// Output formats.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// newClient builds an SDK client from flags, environment, and config file.
func newClient() (nyckel.Client, error) {
	config := &nyckel.Config{
		ClientID:     viper.GetString("client-id"),
		ClientSecret: viper.GetString("client-secret"),
		ServerURL:    viper.GetString("server-url"),
	}

	client, err := nyckelclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

// renderStructured prints v as JSON or YAML per the output flag. It returns
// false when the table format is selected, leaving rendering to the caller.
func renderStructured(v interface{}) (bool, error) {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(v)
	case OutputFormatYAML:
		return true, yaml.NewEncoder(os.Stdout).Encode(v)
	default:
		return false, nil
	}
}

// renderTable prints a header and rows as a table.
func renderTable(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)

	headerCells := make([]interface{}, len(header))
	for i, cell := range header {
		headerCells[i] = cell
	}

	table.Header(headerCells...)

	for _, row := range rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}

		_ = table.Append(cells...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) (bool, error) {
	fmt.Printf("%s (y/n)? ", prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}

	return strings.TrimSpace(line) == "y", nil
}
