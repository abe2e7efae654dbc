package cmd

import (
	"flag"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nibzard/taxocard/internal/config"
)

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("taxocard config", flag.ContinueOnError)
	example := fs.Bool("example", false, "Print an example taxocard.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *example {
		fmt.Print(config.ExampleConfig())
		return nil
	}

	if cws.File != "" {
		fmt.Printf("Config file: %s\n\n", cws.File)
	} else {
		fmt.Print("Config file: (none)\n\n")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "VALUE", "SOURCE")
	for _, key := range config.Keys() {
		t.Row(key, cws.Config.Value(key), string(cws.Sources[key]))
	}
	fmt.Println(t.Render())
	return nil
}
