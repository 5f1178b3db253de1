package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"contentgroups/api/internal/app"
	"contentgroups/api/internal/authpw"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage editor and admin accounts",
}

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runUsersAdd,
}

func init() {
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	usersAddCmd.Flags().StringVar(&userName, "name", "", "Display name (required)")
	usersAddCmd.Flags().StringVar(&userRole, "role", "editor", "Role: viewer, editor or admin")
	usersAddCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters (required)")
	_ = usersAddCmd.MarkFlagRequired("email")
	_ = usersAddCmd.MarkFlagRequired("name")
	_ = usersAddCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersAddCmd)
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(service *app.Service) error {
		user, err := service.CreateUser(cmd.Context(), authpw.CreateUserRequest{
			Email:       userEmail,
			Password:    userPassword,
			DisplayName: userName,
			Role:        userRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) as %s\n", user.ID, user.Email, user.Role)
		return nil
	})
}
