// Package commands implements the CLI commands for mealbook.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/mealbook/internal/app"
	"go.trai.ch/mealbook/internal/build"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/engine/dishedit"
	"go.trai.ch/mealbook/internal/ui/render"
)

// CLI represents the command line interface for mealbook.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	opened  bool
}

// Application represents the application logic interface.
type Application interface {
	Open(ctx context.Context, configPath string, o app.Overrides) error
	Close(ctx context.Context) error
	Meals(query string) ([]domain.Meal, error)
	AddMeal(name string) (domain.Meal, error)
	RenameMeal(ref, name string) (domain.Meal, error)
	CopyMeal(ref string) (domain.Meal, error)
	ShowMeal(ref string) (app.MealView, error)
	AddDish(ref string, draft dishedit.Draft) (domain.Meal, error)
	EditDish(ref string, index int, edit func(*dishedit.Draft) error) (domain.Meal, error)
	DeleteDish(ref string, index int) (domain.Meal, error)
	Export(w io.Writer) error
	Import(r io.Reader) (int, error)
	Reset(confirm bool) error
	Categories() []string
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "mealbook",
		Short:         "Plan meals, their dishes and the groceries they need",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", domain.ConfigFileName, "Path to the config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the meal store")
	rootCmd.PersistentFlags().String("backend", "", "Storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: pretty or json")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newAddCmd())
	rootCmd.AddCommand(c.newRenameCmd())
	rootCmd.AddCommand(c.newCopyCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newDishCmd())
	rootCmd.AddCommand(c.newCategoriesCmd())
	rootCmd.AddCommand(c.newExportCmd())
	rootCmd.AddCommand(c.newImportCmd())
	rootCmd.AddCommand(c.newResetCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
// A store opened by the command is closed afterwards, which waits for
// pending writes.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if !c.opened {
		return err
	}

	c.opened = false
	closeErr := c.app.Close(ctx)
	switch {
	case err == nil:
		return closeErr
	case closeErr == nil:
		return err
	default:
		return errors.Join(err, closeErr)
	}
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// open loads the config and the meal store using the global flags.
func (c *CLI) open(cmd *cobra.Command) error {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	dataDir, _ := flags.GetString("data-dir")
	backend, _ := flags.GetString("backend")
	logFormat, _ := flags.GetString("log-format")

	if err := c.app.Open(cmd.Context(), configPath, app.Overrides{
		DataDir:   dataDir,
		Backend:   backend,
		LogFormat: logFormat,
	}); err != nil {
		return err
	}
	c.opened = true
	return nil
}

func (c *CLI) renderer(cmd *cobra.Command) *render.Renderer {
	return render.New(cmd.OutOrStdout())
}

func emit(cmd *cobra.Command, s string) {
	_, _ = io.WriteString(cmd.OutOrStdout(), s)
}
