package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quintans/faults"
	"github.com/spf13/cobra"

	"github.com/quintans/nestedset/nestedset"
)

func newInitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tree table",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			stmts, err := schema(a.cfg)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				logger.Debug(stmt)
				if _, err := a.conn.ExecContext(ctx, stmt); err != nil {
					return faults.Errorf("sql: %s: %w", stmt, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", a.cfg.Table())
			return nil
		}),
	}
}

func newRootNodeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "root NAME",
		Short: "Create the root of the scope",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			n := &category{Name: args[0]}
			n.Scope = g.scope
			if err := a.tree.MakeRoot(ctx, n); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n.ID)
			return nil
		}),
	}
}

// placement is where a node goes, relative to another node
type placement struct {
	parent int64
	before int64
	after  int64
	last   bool
}

func (p *placement) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&p.parent, "parent", 0, "Id of the parent")
	cmd.Flags().Int64Var(&p.before, "before", 0, "Id of the next sibling")
	cmd.Flags().Int64Var(&p.after, "after", 0, "Id of the previous sibling")
	cmd.Flags().BoolVar(&p.last, "last", false, "Place as the last child of --parent")
}

type placeFunc func(ctx context.Context, n, ref *category) error

// resolve returns the reference node id and the operation, insert or move, for the placement
func (p placement) resolve(tree *nestedset.Tree[*category], insert bool) (int64, placeFunc, error) {
	set := 0
	for _, id := range []int64{p.parent, p.before, p.after} {
		if id != 0 {
			set++
		}
	}
	if set != 1 {
		return 0, nil, faults.New("exactly one of --parent, --before or --after is required")
	}
	if p.last && p.parent == 0 {
		return 0, nil, faults.New("--last requires --parent")
	}

	switch {
	case p.parent != 0 && p.last:
		if insert {
			return p.parent, tree.InsertAsLastChildOf, nil
		}
		return p.parent, tree.MoveToLastChildOf, nil
	case p.parent != 0:
		if insert {
			return p.parent, tree.InsertAsFirstChildOf, nil
		}
		return p.parent, tree.MoveToFirstChildOf, nil
	case p.before != 0:
		if insert {
			return p.before, tree.InsertAsPrevSiblingOf, nil
		}
		return p.before, tree.MoveToPrevSiblingOf, nil
	default:
		if insert {
			return p.after, tree.InsertAsNextSiblingOf, nil
		}
		return p.after, tree.MoveToNextSiblingOf, nil
	}
}

func newAddCmd(g *globals) *cobra.Command {
	p := &placement{}
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Insert a node",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			refID, place, err := p.resolve(a.tree, true)
			if err != nil {
				return err
			}
			ref, err := a.find(ctx, refID)
			if err != nil {
				return err
			}
			n := &category{Name: args[0]}
			if err := place(ctx, n, ref); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n.ID)
			return nil
		}),
	}
	p.bind(cmd)
	return cmd
}

func newMoveCmd(g *globals) *cobra.Command {
	p := &placement{}
	cmd := &cobra.Command{
		Use:   "mv ID",
		Short: "Move a node and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			refID, place, err := p.resolve(a.tree, false)
			if err != nil {
				return err
			}
			n, err := a.find(ctx, id)
			if err != nil {
				return err
			}
			ref, err := a.find(ctx, refID)
			if err != nil {
				return err
			}
			return place(ctx, n, ref)
		}),
	}
	p.bind(cmd)
	return cmd
}

func newRemoveCmd(g *globals) *cobra.Command {
	var childrenOnly bool
	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a node and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := a.find(ctx, id)
			if err != nil {
				return err
			}
			if childrenOnly {
				deleted, err := a.tree.DeleteDescendants(ctx, n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d nodes\n", deleted)
				return nil
			}
			return a.tree.Delete(ctx, n)
		}),
	}
	cmd.Flags().BoolVar(&childrenOnly, "children-only", false, "Delete only the descendants")
	return cmd
}

func newDropCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the whole tree of the scope",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			deleted, err := a.tree.DeleteTree(ctx, g.scope)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d nodes\n", deleted)
			return nil
		}),
	}
}

func newTreeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the tree of the scope",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			root, ok, err := a.tree.Root(ctx, g.scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "scope %d is empty\n", g.scope)
				return nil
			}
			return a.tree.Walk(ctx, root, func(n *category, depth int) error {
				fmt.Fprintf(out, "%s%s (%d) [%d, %d]\n", strings.Repeat("  ", depth), n.Name, n.ID, n.Left, n.Right)
				return nil
			})
		}),
	}
}

func newCheckCmd(g *globals) *cobra.Command {
	var fixLevels bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the tree of the scope",
		Args:  cobra.NoArgs,
		RunE: withApp(g, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if fixLevels {
				fixed, err := a.tree.FixLevels(ctx, g.scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "fixed %d levels\n", fixed)
			}
			if err := a.tree.Validate(ctx, g.scope); err != nil {
				return err
			}
			fmt.Fprintln(out, "ok")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&fixLevels, "fix-levels", false, "Recompute the levels before validating")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, faults.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
