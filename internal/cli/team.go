package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// TeamCmd returns the team command.
func TeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams and list users",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			description, _ := cmd.Flags().GetString("description")
			team, err := wire.TeamService().CreateTeam(NewContext(), primary.CreateTeamRequest{
				Name:        args[0],
				Email:       email,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Printf("✓ Created team %s: %s\n", team.ID, team.Name)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Team mailbox for notifications")
	createCmd.Flags().StringP("description", "d", "", "Team description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := wire.TeamService().ListTeams(NewContext())
			if err != nil {
				return err
			}
			if len(teams) == 0 {
				fmt.Println("No teams found")
				return nil
			}
			fmt.Printf("\n%-36s  %-20s %s\n", "ID", "NAME", "EMAIL")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, t := range teams {
				fmt.Printf("%-36s  %-20s %s\n", t.ID, t.Name, t.Email)
			}
			fmt.Println()
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [team-id]",
		Short: "Delete a team that no user or step references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.TeamService().DeleteTeam(NewContext(), args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted team %s\n", args[0])
			return nil
		},
	}

	usersCmd := &cobra.Command{
		Use:   "users [team-id]",
		Short: "List users, optionally of one team",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID := ""
			if len(args) == 1 {
				teamID = args[0]
			}
			users, err := wire.TeamService().ListUsers(NewContext(), teamID)
			if err != nil {
				return err
			}
			fmt.Printf("\n%-6s %-24s %-28s %s\n", "CODE", "NAME", "EMAIL", "ADMIN")
			fmt.Println("────────────────────────────────────────────────────────────────")
			for _, u := range users {
				admin := ""
				if u.IsAdmin {
					admin = "yes"
				}
				fmt.Printf("%-6s %-24s %-28s %s\n", u.Code, u.FirstName+" "+u.LastName, u.Email, admin)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd, usersCmd)
	return cmd
}
