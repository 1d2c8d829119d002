package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List registered agent backends",
	Long: `List the registered agent backends, their discovered binaries, and
the models each one accepts. Custom backends come from the backends
file in the coordination root.`,
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	registry := env.crew.Backends()
	defaultName := env.cfg.Backend.Default
	if defaultName == "" {
		if b, err := registry.Default(); err == nil {
			defaultName = b.Name()
		}
	}

	for _, b := range registry.All() {
		name := b.Name()
		if name == defaultName {
			name += " (default)"
		}
		fmt.Println(name)

		if path, err := b.DiscoverBinary(); err == nil {
			fmt.Printf("    binary: %s\n", path)
		} else {
			fmt.Printf("    binary: %s (not found)\n", b.Binary())
		}
		if models := b.SupportedModels(); len(models) > 0 {
			fmt.Printf("    models: %s (default %s)\n", strings.Join(models, ", "), b.DefaultModel())
		}
	}
	return nil
}
