// Copyright 2024-present The erd-pets Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erdpets/erdpets/internal/server"
	"github.com/erdpets/erdpets/introspect"
	"github.com/erdpets/erdpets/layout"
	"github.com/erdpets/erdpets/project"
	"github.com/erdpets/erdpets/render"
	"github.com/erdpets/erdpets/schema"
	"github.com/erdpets/erdpets/session"
)

// localFile adapts the local filesystem to the session's FileIO.
type localFile struct {
	path string
}

func (f localFile) ReadFile(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	return string(b), err
}

func (f localFile) WriteFile(_ context.Context, text string) error {
	return os.WriteFile(f.path, []byte(text), 0o644)
}

type rootFlags struct {
	file     string
	diagram  string
	strategy string
	seed     int64
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "erdpets",
		Short:         "File-synchronized entity-relationship diagrams",
		Long:          "erdpets keeps hand-positioned ER diagrams inside the SQL schema file that defines them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&flags.file, "file", "f", "schema.sql", "schema file holding SQL and the layout block")
	pf.StringVarP(&flags.diagram, "diagram", "d", "main", "diagram name")
	pf.StringVar(&flags.strategy, "layout", "grid", "placement strategy for unpositioned tables (grid, circle, random)")
	pf.Int64Var(&flags.seed, "seed", 0, "seed for the random placement strategy")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log progress")
	root.AddCommand(
		newDiagramsCmd(&flags),
		newRenderCmd(&flags),
		newSyncCmd(&flags),
		newServeCmd(),
		newIntrospectCmd(),
	)
	return root
}

func (f *rootFlags) session() (*session.Session, error) {
	gen, ok := layout.ByName(f.strategy, 0, 0, f.seed)
	if !ok {
		return nil, fmt.Errorf("unknown layout strategy %q", f.strategy)
	}
	return session.New(localFile{path: f.file}, gen, f.logger()), nil
}

func (f *rootFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newDiagramsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diagrams",
		Short: "List the diagrams stored in the file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := flags.session()
			if err != nil {
				return err
			}
			res, err := sess.Load(cmd.Context())
			if err != nil {
				return err
			}
			printWarnings(cmd, res.SchemaWarns)
			for _, name := range sess.Diagrams() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newRenderCmd(flags *rootFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Export one diagram as mermaid or markdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := flags.session()
			if err != nil {
				return err
			}
			res, err := sess.Load(cmd.Context())
			if err != nil {
				return err
			}
			printWarnings(cmd, res.SchemaWarns)
			if err := sess.EnsureDiagram(flags.diagram); err != nil {
				return err
			}
			m, warns, err := sess.Resolve(flags.diagram)
			if err != nil {
				return err
			}
			for _, w := range warns {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
			}
			switch format {
			case "mermaid":
				fmt.Fprint(cmd.OutOrStdout(), render.Mermaid(m))
			case "markdown":
				fmt.Fprint(cmd.OutOrStdout(), render.Markdown(m))
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "mermaid", "output format (mermaid, markdown)")
	return cmd
}

func newSyncCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the diagram against the schema and rewrite the layout block",
		Long: `Sync reparses the schema, drops layout entries for removed tables,
places newly matched ones and writes the block back, leaving all SQL
text untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := flags.session()
			if err != nil {
				return err
			}
			res, err := sess.Load(cmd.Context())
			if err != nil {
				return err
			}
			printWarnings(cmd, res.SchemaWarns)
			if err := sess.EnsureDiagram(flags.diagram); err != nil {
				return err
			}
			ref, err := sess.Refresh(cmd.Context(), flags.diagram)
			if err != nil {
				return err
			}
			for _, w := range ref.Warns {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
			}
			if err := sess.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d tables into %q\n", len(ref.Model.Nodes), flags.diagram)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var projectFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live diagram preview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			proj, err := project.Load(projectFile)
			if err != nil {
				return err
			}
			gen, err := proj.Generator()
			if err != nil {
				return err
			}
			cfg, err := server.ReadConfig()
			if err != nil {
				return err
			}
			// The environment wins over the project file.
			if _, ok := os.LookupEnv("ERD_ADDR"); !ok {
				cfg.Addr = proj.Addr()
			}
			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer log.Sync()
			sess := session.New(localFile{path: proj.Src}, gen, log)
			if _, err := sess.Load(cmd.Context()); err != nil {
				return err
			}
			if err := sess.EnsureDiagram(proj.Diagram); err != nil {
				return err
			}
			return server.New(cfg, sess, log).Run()
		},
	}
	cmd.Flags().StringVarP(&projectFile, "project", "c", "erd.hcl", "project file")
	return cmd
}

func newIntrospectCmd() *cobra.Command {
	var (
		dsn     string
		schemas []string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Bootstrap a schema file from a live PostgreSQL database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				dsn = os.Getenv("ERD_DSN")
			}
			if dsn == "" {
				return errors.New("no DSN: pass --dsn or set ERD_DSN")
			}
			db, err := introspect.Open(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			s, err := introspect.Database(cmd.Context(), db, schemas...)
			if err != nil {
				return err
			}
			ddl := introspect.DDL(s)
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), ddl)
				return nil
			}
			return os.WriteFile(out, []byte(ddl), 0o644)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string (or ERD_DSN)")
	cmd.Flags().StringSliceVar(&schemas, "schema", []string{"public"}, "schemas to read")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write DDL to this file instead of stdout")
	return cmd
}

func printWarnings(cmd *cobra.Command, warns []schema.Warning) {
	for _, w := range warns {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
	}
}
