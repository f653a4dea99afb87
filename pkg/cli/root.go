package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// stdout receives command output; tests replace it
var stdout io.Writer = os.Stdout

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "menuguard-admin",
		Description: "menuguard-admin - permission database administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("menuguard-admin", flag.ExitOnError),
	}

	for _, cmd := range []*Command{
		newMigrateCommand(),
		newSeedCommand(),
		newCheckCommand(),
		newMenusCommand(),
		newPurgeLogsCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute runs the command named by os.Args
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs dispatches args[0] to its subcommand
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(stdout, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(stdout, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
