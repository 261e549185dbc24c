package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/memochat/config"
	"github.com/becomeliminal/memochat/llm/ollama"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the Ollama backend is reachable and the configured model is installed",
		Long: `Check the health of the generation backend by verifying:
  • Ollama server reachability
  • Installed model inventory
  • Presence of the configured chat model

Useful before starting the server or when chat turns come back with the
fail-soft apology message.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Println(sectionStyle.Render("🔍 Ollama Health Check"))
			fmt.Println()

			client := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, 0)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			fmt.Println(infoStyle.Render(fmt.Sprintf("Step 1: Contacting %s...", cfg.Ollama.BaseURL)))
			models, err := client.Tags(ctx)
			if err != nil {
				fmt.Println(errorStyle.Render("❌ Ollama is not responding:"), err)
				fmt.Println()
				fmt.Println("💡 Remediation:")
				fmt.Println("   1. Make sure Ollama is running: ollama serve")
				fmt.Println("   2. Check that it is reachable at " + cfg.Ollama.BaseURL)
				return fmt.Errorf("health check failed: backend unreachable")
			}
			fmt.Println(successStyle.Render("✅ Ollama is running"))
			fmt.Println()

			fmt.Println(infoStyle.Render("Step 2: Listing installed models..."))
			if len(models) == 0 {
				fmt.Println(warningStyle.Render("⚠️  No models installed"))
				fmt.Printf("   Install one: ollama pull %s\n", cfg.Ollama.Model)
			} else {
				fmt.Println(successStyle.Render(fmt.Sprintf("✅ %d model(s) installed", len(models))))
				for _, m := range models {
					fmt.Printf("   - %s (%.2f GB)\n", m.Name, float64(m.Size)/(1024*1024*1024))
				}
			}
			fmt.Println()

			fmt.Println(infoStyle.Render(fmt.Sprintf("Step 3: Checking configured model %q...", cfg.Ollama.Model)))
			found := false
			for _, m := range models {
				if strings.Contains(m.Name, cfg.Ollama.Model) {
					found = true
					break
				}
			}
			if found {
				fmt.Println(successStyle.Render(fmt.Sprintf("✅ Model %q found", cfg.Ollama.Model)))
			} else {
				fmt.Println(warningStyle.Render(fmt.Sprintf("⚠️  Model %q not found", cfg.Ollama.Model)))
				fmt.Printf("   Install it: ollama pull %s\n", cfg.Ollama.Model)
			}
			fmt.Println()

			fmt.Println(sectionStyle.Render("📊 Summary"))
			if found {
				fmt.Println(successStyle.Render("✅ Health check passed"))
			} else {
				fmt.Println(warningStyle.Render("⚠️  Backend reachable but the configured model is missing"))
			}
			return nil
		},
	}
}
