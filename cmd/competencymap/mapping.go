package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"competencymap/internal/domain"
)

var getCmd = &cobra.Command{
	Use:   "get <questionID>",
	Short: "Show the competency linked to a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, err := parsePositiveID("question", args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		display, competency, err := a.svc.CompetencyDisplay(cmd.Context(), questionID)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"question_id": questionID,
				"competency":  competency,
				"display":     display,
			})
		}

		if competency == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Question %d: %s\n", questionID, display)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Question %d: %s [competency %d]\n", questionID, competency.Label(), competency.ID)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <questionID> <competencyID>",
	Short: "Link a question to a competency (0 clears the link)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, err := parsePositiveID("question", args[0])
		if err != nil {
			return err
		}
		competencyID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || competencyID < 0 {
			return fmt.Errorf("invalid competency id %q", args[1])
		}
		return setMapping(cmd, questionID, competencyID)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <questionID>",
	Short: "Remove a question's competency link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, err := parsePositiveID("question", args[0])
		if err != nil {
			return err
		}
		return setMapping(cmd, questionID, domain.NoCompetency)
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the competency choices in selector order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		options, err := a.svc.ListCompetencyOptions(cmd.Context())
		if err != nil {
			return err
		}
		for _, o := range options {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", o.ID, o.Label)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Bool("json", false, "Print JSON")
}

func setMapping(cmd *cobra.Command, questionID, competencyID int64) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.svc.Question(cmd.Context(), questionID); err != nil {
		return err
	}
	if err := a.svc.SetCompetencyForQuestion(cmd.Context(), questionID, competencyID); err != nil {
		return err
	}

	if competencyID == domain.NoCompetency {
		fmt.Fprintf(cmd.OutOrStdout(), "Question %d: link cleared\n", questionID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Question %d: linked to competency %d\n", questionID, competencyID)
	return nil
}

func parsePositiveID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}
