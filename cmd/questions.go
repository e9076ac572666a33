package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/questionbank"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect the free-conversation question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every question in the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		qs, err := questionbank.DefaultQuestions()
		if cfg.Practice.QuestionsFile != "" {
			qs, err = questionbank.LoadFile(cfg.Practice.QuestionsFile)
		}
		if err != nil {
			return err
		}
		for i, q := range qs {
			fmt.Printf("%3d  %s\n", i+1, q)
		}
		return nil
	},
}

var questionsPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the question the next free conversation will offer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		bank, err := loadQuestions(cfg)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := questionbank.Load(cmd.Context(), bank, s.StateRepo()); err != nil {
			return err
		}
		next := bank.Preview()
		// Persist so the app offers the same question.
		if err := questionbank.Save(cmd.Context(), bank, s.StateRepo()); err != nil {
			return err
		}
		st := bank.State()
		fmt.Printf("Next question: %s\n", next)
		fmt.Printf("Remaining:     %d of %d\n", len(st.Remaining), bank.Len())
		return nil
	},
}

func init() {
	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsPreviewCmd)
}
