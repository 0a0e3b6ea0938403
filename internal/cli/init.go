package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temic137/formforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize formforge configuration",
	Long:  `Write a default configuration file with provider, model and routing settings.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	defaults := config.DefaultConfig()
	if err := defaults.Save(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration written to %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Export API keys for the providers you enabled:")
	for _, p := range defaults.Providers {
		if p.APIKeyEnv != "" {
			fmt.Printf("       export %s=...\n", p.APIKeyEnv)
		}
	}
	fmt.Println("  2. Adjust models and routes in the config to taste")
	fmt.Println("  3. Run 'formforge serve' or 'formforge generate'")

	return nil
}

func promptYesNo(reader *bufio.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
