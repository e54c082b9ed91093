// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sclkit/sclkit/internal/config"
	"github.com/sclkit/sclkit/internal/issue"
	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/idgen"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/store"

	"github.com/charmbracelet/log"
)

// documentExt is the file extension of document databases.
const documentExt = ".db"

type (
	// ConfigProvider loads configuration from explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Dependencies are the collaborators of an App. Nil fields get the
	// process defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// Clock stamps History entries.
		Clock func() time.Time
	}

	// App is the composition root shared by every command.
	App struct {
		Config ConfigProvider

		stdout io.Writer
		stderr io.Writer
		clock  func() time.Time

		flags  globalFlags
		cfg    *config.Config
		logger *log.Logger
	}

	globalFlags struct {
		configPath string
		dataDir    string
		verbose    bool
	}

	// session is a loaded dialect with the id generator its documents use.
	session struct {
		dialect *dialect.Config
		ids     idgen.Generator
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		clock:  deps.Clock,
		logger: log.New(io.Discard),
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.clock == nil {
		app.clock = time.Now
	}
	return app
}

// prepare loads the configuration and builds the logger. Flags take
// precedence over the file and the environment.
func (a *App) prepare(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return err
	}
	if a.flags.dataDir != "" {
		cfg.DataDir = config.DataDirPath(a.flags.dataDir)
	}
	a.cfg = cfg

	level, err := log.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	if a.flags.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	return nil
}

// session loads the SCL dialect with the configured id strategy.
func (a *App) session() (*session, error) {
	ids, err := a.cfg.IDStrategy.Generator()
	if err != nil {
		return nil, err
	}
	d, err := scl.NewDialect(ids)
	if err != nil {
		return nil, fmt.Errorf("load SCL dialect: %w", err)
	}
	return &session{dialect: d, ids: ids}, nil
}

// documentPath resolves a document argument. Names map to a database in the
// data directory; arguments with a path separator or the .db extension are
// used as paths.
func (a *App) documentPath(doc string) (string, error) {
	if strings.ContainsRune(doc, filepath.Separator) || strings.ContainsRune(doc, '/') || filepath.Ext(doc) == documentExt {
		return doc, nil
	}
	dir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, doc+documentExt), nil
}

// documentName is the name a document database is reported under.
func documentName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), documentExt)
}

func (s *session) documentOptions(a *App, path string) []engine.Option {
	return []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithName(documentName(path)),
		engine.WithIDGenerator(s.ids),
	}
}

// openDocument opens an existing document database.
func (a *App) openDocument(ctx context.Context, s *session, doc string) (*engine.Document, error) {
	path, err := a.documentPath(doc)
	if err != nil {
		return nil, err
	}
	if !fileExists(path) {
		return nil, issue.NewErrorContext().
			WithOperation("open document").
			WithResource(doc).
			WithIssue(issue.DocumentNotFoundId).
			WithSuggestion("Looked for " + path).
			Wrap(os.ErrNotExist).
			BuildError()
	}
	return a.openPath(ctx, s, path)
}

// openOrCreateDocument opens a document database, creating an empty
// document when it does not exist.
func (a *App) openOrCreateDocument(ctx context.Context, s *session, doc string) (*engine.Document, error) {
	path, err := a.documentPath(doc)
	if err != nil {
		return nil, err
	}
	if !fileExists(path) {
		a.logger.Info("creating document", "path", path)
	}
	return a.openPath(ctx, s, path)
}

func (a *App) openPath(ctx context.Context, s *session, path string) (*engine.Document, error) {
	st, err := store.OpenSQLite(ctx, path, s.dialect.Database)
	if err != nil {
		return nil, err
	}
	d, err := engine.Open(ctx, s.dialect, st, s.documentOptions(a, path)...)
	if err != nil {
		return nil, errors.Join(err, st.Close())
	}
	a.logger.Debug("opened document", "path", path, "elements", len(d.Records()))
	return d, nil
}

// closeDocument closes d, reporting a failure only when err is nil.
func closeDocument(d *engine.Document, err *error) {
	if closeErr := d.Close(); closeErr != nil && *err == nil {
		*err = closeErr
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// elementError links engine failures to their guidance.
func elementError(operation, resource string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource)
	switch {
	case errors.Is(err, engine.ErrElementNotFound):
		ctx.WithIssue(issue.ElementNotFoundId)
	case errors.Is(err, engine.ErrChildNotAllowed), errors.Is(err, engine.ErrSingletonExists):
		ctx.WithIssue(issue.ChildNotAllowedId)
	}
	return ctx.Wrap(err).BuildError()
}
