package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.kaleido.dev/pkg"
	"golang.org/x/sync/errgroup"
)

// parseFiles parses every file concurrently. The result is in the order of
// names.
func parseFiles(ctx context.Context, e *env, names []string) ([]*kaleido.AST, error) {
	asts := make([]*kaleido.AST, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			f, err := os.Open(name)
			if err != nil {
				return errors.Wrapf(err, "opening %s", name)
			}
			defer f.Close()

			ast, err := kaleido.ParseFromReader(f, e.ops)
			if err != nil {
				return errors.Wrap(err, name)
			}

			e.log.Debugf("parsed %d items from %s", len(ast.Statements), name)
			asts[i] = ast
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return asts, nil
}

// emitModules compiles each file into its own module concurrently.
func emitModules(ctx context.Context, e *env, names []string) ([]string, error) {
	modules := make([]string, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c := kaleido.NewCompiler(e.ops, e.log)
			items, err := c.Compile(name)
			if err != nil {
				return err
			}

			e.log.Debugf("compiled %d items from %s", len(items), name)
			modules[i] = c.Module()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return modules, nil
}

func printASTs(ctx context.Context, e *env, names []string) error {
	if len(names) == 0 {
		return errors.New("no input files")
	}

	asts, err := parseFiles(ctx, e, names)
	if err != nil {
		return err
	}

	for i, ast := range asts {
		if len(names) > 1 {
			fmt.Fprintf(e.out, "# %s\n", names[i])
		}
		fmt.Fprintln(e.out, ast)
	}

	return nil
}

func printModules(ctx context.Context, e *env, names []string) error {
	if len(names) == 0 {
		return errors.New("no input files")
	}

	modules, err := emitModules(ctx, e, names)
	if err != nil {
		return err
	}

	for i, mod := range modules {
		if len(names) > 1 {
			fmt.Fprintf(e.out, "; %s\n", names[i])
		}
		fmt.Fprintln(e.out, mod)
	}

	return nil
}
