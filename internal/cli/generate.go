package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temic137/formforge/internal/models"
)

var (
	genContent       string
	genFile          string
	genReference     string
	genUserContext   string
	genQuestionCount int
	genPretty        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a form schema from content",
	Long: `Run the full generation pipeline once and print the resulting schema
as JSON on stdout. Content comes from --content or --file.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genContent, "content", "c", "", "Content brief to generate from")
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "Read content from a file")
	generateCmd.Flags().StringVarP(&genReference, "reference", "r", "", "Reference data passed to synthesis only")
	generateCmd.Flags().StringVarP(&genUserContext, "user-context", "u", "", "Extra context about the requesting user")
	generateCmd.Flags().IntVarP(&genQuestionCount, "questions", "n", 0, "Desired number of questions (1-120)")
	generateCmd.Flags().BoolVar(&genPretty, "pretty", true, "Indent the JSON output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	content := genContent
	if genFile != "" {
		data, err := os.ReadFile(genFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}
	if content == "" {
		// Fall back to piped stdin
		if info, err := os.Stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			content = string(data)
		}
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required, pass --content, --file or pipe it on stdin")
	}

	req := &models.GenerateRequest{
		Content:       content,
		ReferenceData: genReference,
		UserContext:   genUserContext,
	}
	if genQuestionCount != 0 {
		req.QuestionCount = &genQuestionCount
	}

	result, err := pipe.Generate(context.Background(), req, generateOptions())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for _, w := range result.Run.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	enc := json.NewEncoder(os.Stdout)
	if genPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result.Schema)
}
