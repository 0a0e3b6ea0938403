package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var modelsLive bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured models",
	Long: `List the model descriptors the router knows about. With --live, query
each registered provider for the models it actually serves.`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVarP(&modelsLive, "live", "l", false, "Query providers for their available models")
}

func runModels(cmd *cobra.Command, args []string) error {
	fmt.Println("Configured models:")
	for _, d := range modelRouter.Models() {
		line := fmt.Sprintf("  %-30s provider=%-10s purposes=%s", d.ID, d.Provider, strings.Join(d.Purposes, ","))
		if d.AvgLatencyMs > 0 {
			line += fmt.Sprintf(" avg_latency=%dms", d.AvgLatencyMs)
		}
		fmt.Println(line)
	}

	if !modelsLive {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println()
	for _, name := range llmRegistry.Names() {
		provider, ok := llmRegistry.Get(name)
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", name)
		available, err := provider.ListModels(ctx)
		if err != nil {
			fmt.Printf("  unavailable: %v\n", err)
			continue
		}
		for _, m := range available {
			fmt.Printf("  %s\n", m.ID)
		}
	}

	return nil
}
