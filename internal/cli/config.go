package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the persistent flags. Flags given on the command line
// win over values from the file.
type fileConfig struct {
	Output   string   `yaml:"output"`
	Limit    *int     `yaml:"limit"`
	Expanded *bool    `yaml:"expanded"`
	Exclude  []string `yaml:"exclude"`
	LogFile  string   `yaml:"log_file"`
}

func readConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var c fileConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &c, nil
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	if a.configPath == "" {
		return nil
	}
	c, err := readConfig(a.configPath)
	if err != nil {
		return err
	}
	set := func(name string) bool { return !cmd.Flags().Changed(name) }
	if c.Output != "" && set("output") {
		a.format = outputFormat(c.Output)
	}
	if c.Limit != nil && set("limit") {
		a.limit = *c.Limit
	}
	if c.Expanded != nil && set("expanded") {
		a.expanded = *c.Expanded
	}
	if len(c.Exclude) > 0 && set("exclude") {
		a.exclude = c.Exclude
	}
	if c.LogFile != "" && set("log-file") {
		a.logFile = c.LogFile
	}
	return nil
}
