package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/rabotim/internal/ports/primary"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Leave and read feedback",
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit [task-id] [score]",
	Short: "Rate the other party of a task (1-5)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := requireActor(cmd)
		if err != nil {
			return err
		}
		score, err := parseScore(args[1])
		if err != nil {
			return err
		}
		c, err := container()
		if err != nil {
			return err
		}

		text, _ := cmd.Flags().GetString("text")
		return c.ReviewAdapter(cmd.OutOrStdout()).Submit(NewContext(cmd), primary.SubmitReviewRequest{
			TaskID:     args[0],
			ReviewerID: actor,
			Score:      score,
			Text:       text,
		})
	},
}

var reviewListCmd = &cobra.Command{
	Use:   "list [user-id]",
	Short: "List reviews a user has received",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}
		return c.ReviewAdapter(cmd.OutOrStdout()).List(NewContext(cmd), args[0])
	},
}

var reviewRatingCmd = &cobra.Command{
	Use:   "rating [user-id]",
	Short: "Show a user's rating summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := container()
		if err != nil {
			return err
		}
		return c.ReviewAdapter(cmd.OutOrStdout()).Rating(NewContext(cmd), args[0])
	},
}

func init() {
	reviewSubmitCmd.Flags().StringP("text", "t", "", "Review text")

	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewRatingCmd)
}

// ReviewCmd returns the review command
func ReviewCmd() *cobra.Command {
	return reviewCmd
}

func parseScore(raw string) (int, error) {
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("score must be a whole number from 1 to 5, got %q", raw)
	}
	return score, nil
}
