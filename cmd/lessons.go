package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/catalog"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Inspect the built-in lessons and scenarios",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons and scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cat, err := catalog.Load(version)
		if err != nil {
			return err
		}

		mark := func(id, def string) string {
			if id == def {
				return "*"
			}
			return " "
		}

		fmt.Println("Lessons")
		fmt.Println(strings.Repeat("─", 72))
		for _, l := range cat.Lessons() {
			fmt.Printf("%s %-28s  %-32s  %d steps\n",
				mark(l.ID, cfg.Practice.Lesson), l.ID, truncate(l.Title, 32), len(l.Layers))
		}

		fmt.Println()
		fmt.Println("Scenarios")
		fmt.Println(strings.Repeat("─", 72))
		for _, sc := range cat.Scenarios() {
			fmt.Printf("%s %-28s  %-32s  %s\n",
				mark(sc.ID, cfg.Practice.Scenario), sc.ID, truncate(sc.Title, 32), sc.Role)
		}

		if len(cat.Skipped) > 0 {
			fmt.Printf("\nNeeds a newer parley: %s\n", strings.Join(cat.Skipped, ", "))
		}
		return nil
	},
}

var lessonsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate lesson content",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(version)
		if err != nil {
			return err
		}
		errs := cat.Check()
		for _, e := range errs {
			fmt.Println("✗", e)
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d problem(s) found", len(errs))
		}
		fmt.Printf("✓ %d lessons, %d scenarios OK\n", len(cat.Lessons()), len(cat.Scenarios()))
		return nil
	},
}

func init() {
	lessonsCmd.AddCommand(lessonsListCmd)
	lessonsCmd.AddCommand(lessonsCheckCmd)
}
