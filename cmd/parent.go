package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studybuddy/internal/family"
)

var parentCmd = &cobra.Command{
	Use:   "parent",
	Short: "Manage parent and child profiles",
}

var parentEnsureCmd = &cobra.Command{
	Use:   "ensure <parent-id>",
	Short: "Create a parent profile if it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.families().EnsureParent(cmd.Context(), family.NewParent{ID: args[0], Username: username, Email: email})
		if err != nil {
			return err
		}
		printParent(p)
		return nil
	},
}

var parentAddChildCmd = &cobra.Command{
	Use:   "add-child <parent-id>",
	Short: "Add a child profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		grade, _ := cmd.Flags().GetString("grade")
		avatar, _ := cmd.Flags().GetString("avatar")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		c, err := d.families().AddChild(cmd.Context(), args[0], family.NewChild{Name: name, GradeLevel: grade, Avatar: avatar})
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (grade %s) with ID %s\n", c.Name, c.GradeLevel, c.ID)
		return nil
	},
}

var parentShowCmd = &cobra.Command{
	Use:   "show <parent-id>",
	Short: "Show a parent and their children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.families().GetParent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(p)
		}
		printParent(p)
		return nil
	},
}

func init() {
	parentEnsureCmd.Flags().String("username", "", "Display name (required)")
	parentEnsureCmd.Flags().String("email", "", "Email address")
	_ = parentEnsureCmd.MarkFlagRequired("username")

	parentAddChildCmd.Flags().String("name", "", "Child's name (required)")
	parentAddChildCmd.Flags().String("grade", "", "Grade level: JK, SK or 1-8 (required)")
	parentAddChildCmd.Flags().String("avatar", "", "Avatar: "+strings.Join(family.Avatars, ", "))
	_ = parentAddChildCmd.MarkFlagRequired("name")
	_ = parentAddChildCmd.MarkFlagRequired("grade")

	parentShowCmd.Flags().Bool("json", false, "Print as JSON")

	parentCmd.AddCommand(parentEnsureCmd)
	parentCmd.AddCommand(parentAddChildCmd)
	parentCmd.AddCommand(parentShowCmd)
}

func printParent(p *family.Parent) {
	fmt.Printf("Parent:   %s (%s)\n", p.Username, p.ID)
	if p.Email != "" {
		fmt.Printf("Email:    %s\n", p.Email)
	}
	if len(p.Children) == 0 {
		fmt.Println("Children: none")
		return
	}
	fmt.Println("Children:")
	for _, c := range p.Children {
		fmt.Printf("  %-36s  %-16s  grade %-2s  %d spelling sessions\n",
			c.ID, c.Name, c.GradeLevel, len(c.SpellingProgress))
	}
}
