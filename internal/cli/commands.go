package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
)

func (a *app) userCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email, password, bio string
	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				u, err := svc.CreateUser(ctx, application.CreateUserInput{
					Username: args[0], Name: name, Email: email, Password: password, Bio: bio,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "created user %s\n", u.Username)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "display name")
	createCmd.Flags().StringVar(&email, "email", "", "email address")
	createCmd.Flags().StringVar(&password, "password", "", "password (required)")
	createCmd.Flags().StringVar(&bio, "bio", "", "short bio")
	_ = createCmd.MarkFlagRequired("password")

	showCmd := &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				u, err := svc.FindByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				renderProfile(a.out, u)
				return nil
			})
		},
	}

	var newName, newEmail, newBio string
	updateCmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Edit profile fields; empty flags are left unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				u, err := svc.UpdateFields(ctx, args[0], entity.UserPatch{
					Name: &newName, Email: &newEmail, Bio: &newBio,
				})
				if err != nil {
					return err
				}
				renderProfile(a.out, u)
				return nil
			})
		},
	}
	updateCmd.Flags().StringVar(&newName, "name", "", "new display name")
	updateCmd.Flags().StringVar(&newEmail, "email", "", "new email address")
	updateCmd.Flags().StringVar(&newBio, "bio", "", "new bio")

	deleteCmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and every edge touching them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				if err := svc.DeleteUser(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted user %s\n", args[0])
				return nil
			})
		},
	}

	var loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Check a username/password pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				u, err := svc.Authenticate(ctx, args[0], loginPassword)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "authenticated as %s (%s)\n", u.Username, u.Name)
				return nil
			})
		},
	}
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")

	userCmd.AddCommand(createCmd, showCmd, updateCmd, deleteCmd, loginCmd)
	return userCmd
}

func (a *app) followCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <follower> <followed>",
		Short: "Make follower follow followed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				created, err := svc.Follow(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(a.out, "%s now follows %s\n", args[0], args[1])
				} else {
					fmt.Fprintf(a.out, "%s already follows %s\n", args[0], args[1])
				}
				return nil
			})
		},
	}
}

func (a *app) unfollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <follower> <followed>",
		Short: "Remove the follower -> followed edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				removed, err := svc.Unfollow(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(a.out, "%s no longer follows %s\n", args[0], args[1])
				} else {
					fmt.Fprintf(a.out, "%s was not following %s\n", args[0], args[1])
				}
				return nil
			})
		},
	}
}

type listMethod func(*application.Service, context.Context, string) ([]*entity.User, error)
type pairMethod func(*application.Service, context.Context, string, string) ([]*entity.User, error)

func (a *app) listCmd(use, short string, fn listMethod) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				users, err := fn(svc, ctx, args[0])
				if err != nil {
					return err
				}
				renderUsers(a.out, users)
				return nil
			})
		},
	}
}

func (a *app) pairCmd(use, short string, fn pairMethod) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <a> <b>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				users, err := fn(svc, ctx, args[0], args[1])
				if err != nil {
					return err
				}
				renderUsers(a.out, users)
				return nil
			})
		},
	}
}

func (a *app) relationshipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relationship <a> <b>",
		Short: "Show the edges between a and b",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				rel, err := svc.Relationship(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				renderTable(a.out, []string{"Edge", "Exists"}, [][]interface{}{
					{args[0] + " -> " + args[1], rel.Following},
					{args[1] + " -> " + args[0], rel.FollowedBy},
				})
				return nil
			})
		},
	}
}

func (a *app) topCmd() *cobra.Command {
	var n string
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Users with the most followers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				ranked, err := svc.TopByFollowerCount(ctx, parseN(n))
				if err != nil {
					return err
				}
				renderRanked(a.out, ranked)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&n, "n", "n", "10", "how many users to show")
	return cmd
}

func (a *app) recommendCmd() *cobra.Command {
	var n string
	cmd := &cobra.Command{
		Use:   "recommend <username>",
		Short: "Suggest users to follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				recs, err := svc.Recommend(ctx, args[0], parseN(n))
				if err != nil {
					return err
				}
				renderRecommendations(a.out, recs)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&n, "n", "n", "10", "how many suggestions to show")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Case-sensitive substring search over username and name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				users, err := svc.Search(ctx, q)
				if err != nil {
					return err
				}
				renderUsers(a.out, users)
				return nil
			})
		},
	}
}

func (a *app) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push every user into the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				n, err := svc.ReindexAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "indexed %d users\n", n)
				return nil
			})
		},
	}
}

func (a *app) snapshotCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export users and edges as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, svc *application.Service) error {
				if path == "" || path == "-" {
					return svc.ExportSnapshot(ctx, a.out)
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := svc.ExportSnapshot(ctx, f); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "snapshot written to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "-", "output file, - for stdout")
	return cmd
}
