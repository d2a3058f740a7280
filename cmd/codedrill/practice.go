package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/exercise"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/session"
	"github.com/codedrill/codedrill/internal/storage/sqlite"
	"go.uber.org/zap"
)

var (
	categoryFlag   string
	difficultyFlag string
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice exercises interactively in the terminal",
	Long: `Start a local practice session. Each round generates an exercise,
collects your solution line by line, and grades it.

Commands inside the session:
  /run    - Run and grade the code entered so far
  /show   - Show the code entered so far
  /clear  - Discard the code entered so far
  /next   - Generate a new exercise
  /quit   - Exit

Examples:
  codedrill practice
  codedrill practice --category while-loop --difficulty intermediate`,
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVar(&categoryFlag, "category", "", "Exercise category")
	practiceCmd.Flags().StringVar(&difficultyFlag, "difficulty", "", "Exercise difficulty")
	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	sessions := session.NewMemoryStore(cfg.Sessions.TTL)
	defer sessions.Close()

	provider, err := cfg.Provider(providerFlag)
	if err != nil {
		return err
	}
	model := provider.Model(modelFlag)

	client := llm.NewClient(provider.BaseURL, provider.APIKey, model)
	box := newSandbox(cfg)
	svc := grading.NewService(client, box, sessions, store, zap.NewNop().Sugar(), gradingOptions(cfg))

	ctx := cmd.Context()
	sess, err := localSession(ctx, store, sessions)
	if err != nil {
		return err
	}

	presets, err := loadPresets(cfg)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	providerName := providerFlag
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	fmt.Printf("CodeDrill - Practice Session\n")
	fmt.Printf("Provider: %s | Model: %s\n", providerName, model)
	fmt.Printf("Categories: %s\n", formatCategories(presets))
	fmt.Printf("Type your solution line by line, then /run to grade. /quit to exit.\n\n")

	if err := nextExercise(ctx, svc, sess.Token); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36m>>> \033[0m",
		HistoryFile:     "/tmp/codedrill_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	var code []string
	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		if !strings.HasPrefix(strings.TrimSpace(input), "/") {
			code = append(code, input)
			continue
		}

		switch strings.ToLower(strings.Fields(input)[0]) {
		case "/quit", "/exit", "/q":
			fmt.Println("Goodbye!")
			return nil
		case "/show":
			fmt.Println(strings.Join(code, "\n"))
			fmt.Println()
		case "/clear":
			code = nil
			fmt.Println("Cleared.")
			fmt.Println()
		case "/next":
			code = nil
			if err := nextExercise(ctx, svc, sess.Token); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
			}
		case "/run":
			result, err := svc.SubmitWithProgress(ctx, sess.Token, strings.Join(code, "\n"), func(phase string) {
				fmt.Printf("  \033[90m%s...\033[0m\n", phase)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
				continue
			}
			printResult(result)
			code = nil
		case "/help":
			fmt.Println("Commands: /run /show /clear /next /quit")
			fmt.Println()
		default:
			fmt.Printf("Unknown command: %s (try /help)\n\n", input)
		}
	}
}

// formatCategories renders the preset names for the session banner.
func formatCategories(presets []exercise.Preset) string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func nextExercise(ctx context.Context, svc *grading.Service, token string) error {
	fmt.Println("Generating exercise...")
	ex, err := svc.Generate(ctx, token, categoryFlag, difficultyFlag)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n\n", ex.Problem)
	return nil
}

func printResult(result *grading.Result) {
	fmt.Printf("\nOutput:\n%s\n\n", result.Output)
	if result.Correct {
		fmt.Printf("\033[32mCorrect!\033[0m %s\n\n", result.Judgment)
	} else {
		fmt.Printf("\033[31mIncorrect.\033[0m %s\n\n", result.Judgment)
	}
}
