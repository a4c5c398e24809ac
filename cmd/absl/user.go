package main

import (
	"github.com/deppfellow/go-absl/internal/lib/utils"
	"github.com/deppfellow/go-absl/internal/service"
	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCommand(opts), newUserLoginCommand(opts))
	return cmd
}

func newUserAddCommand(opts *rootOptions) *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}

			in.Username, in.Email = args[0], args[1]
			user, err := rt.services.Users.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&in.Password, "password", "", "the user's password")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "optional display name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserLoginCommand(opts *rootOptions) *cobra.Command {
	var in service.LoginInput

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd.Context())
			if err != nil {
				return err
			}

			in.Username = args[0]
			user, err := rt.services.Users.Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&in.Password, "password", "", "the password to check")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
