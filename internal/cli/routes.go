package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show purpose-to-model routing",
	RunE:  runRoutes,
}

func runRoutes(cmd *cobra.Command, args []string) error {
	for _, route := range modelRouter.Routes() {
		fallbacks := "none"
		if len(route.Fallbacks) > 0 {
			fallbacks = strings.Join(route.Fallbacks, " -> ")
		}
		fmt.Printf("  %-22s primary=%-30s fallbacks=%s\n", route.Purpose, route.Primary, fallbacks)
	}
	return nil
}
