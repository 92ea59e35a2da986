// Package cli implements graphctl, an operator console that runs the graph
// engine in-process against the configured store.
package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// defaultN is used when -n is missing, malformed or not positive.
const defaultN = 10

// OpenFunc opens the engine for one command. The returned func releases it.
type OpenFunc func(ctx context.Context, logger *logrus.Logger) (*application.Service, func(), error)

type app struct {
	open    OpenFunc
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// NewRootCmd builds the graphctl command tree. Tables go to out; engine logs
// go to errOut when --verbose is set and are dropped otherwise.
func NewRootCmd(open OpenFunc, out, errOut io.Writer) *cobra.Command {
	a := &app{open: open, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Social graph console",
		Long:          "Inspect and edit the social graph directly against the configured store (STORE_BACKEND).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(
		a.userCmd(),
		a.followCmd(),
		a.unfollowCmd(),
		a.listCmd("followers", "List who follows a user", (*application.Service).Followers),
		a.listCmd("following", "List who a user follows", (*application.Service).Following),
		a.pairCmd("mutuals", "Users followed by both a and b", (*application.Service).Mutuals),
		a.pairCmd("also-followed-by", "Users a follows who also follow b", (*application.Service).AlsoFollowedBy),
		a.relationshipCmd(),
		a.topCmd(),
		a.recommendCmd(),
		a.searchCmd(),
		a.reindexCmd(),
		a.snapshotCmd(),
	)
	return root
}

// run opens the engine, calls fn and releases the engine.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, svc *application.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := a.open(ctx, a.logger())
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, svc)
}

func (a *app) logger() *logrus.Logger {
	if !a.verbose {
		return helpers.NewDiscardLogger()
	}
	l := logrus.New()
	l.SetOutput(a.errOut)
	l.SetLevel(logrus.DebugLevel)
	return l
}

// parseN reads -n; anything unparsable or below 1 becomes defaultN.
func parseN(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultN
	}
	return n
}
