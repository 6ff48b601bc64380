// Package main provides the helpscot binary: it runs the bot and validates local checkouts
// of the tags repository
package main

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot"
	"github.com/bugcenter/helpscot/config"
	"github.com/bugcenter/helpscot/docsearch"
	"github.com/bugcenter/helpscot/paste"
	"github.com/bugcenter/helpscot/plugins"
	"github.com/bugcenter/helpscot/sandbox"
	"github.com/bugcenter/helpscot/store"
	"github.com/bugcenter/helpscot/store/datastoredb"
	"github.com/bugcenter/helpscot/store/inmemorydb"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const (
	name = "helpscot"

	githubTokenKey = "githubToken"
	baseURLKey     = "baseURL"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Community support slack bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(runCmd(), validateCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", name, helpscot.VERSION)
		},
	})

	return cmd
}

func runCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		Long: `Run the bot with the configuration file given with --config. Values can be overridden
with environment variables prefixed with HELPSCOT_ (i.e. HELPSCOT_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path (any format supported by viper)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate a local checkout of the tags repository",
		Long: `Validate every document of a local checkout of the tags repository laid out as
<dir>/<category>/<document>.toml|json and print the errors found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed, err := validate(args[0], cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("[%d] invalid document(s)", failed)
			}

			return nil
		},
	}
}

func run(ctx context.Context, configPath string) (err error) {
	v, err := config.NewFromFile(configPath)
	if err != nil {
		return err
	}

	tagsStorer, err := newStorer(v, plugins.TaggerPluginName)
	if err != nil {
		return err
	}

	gists := paste.NewGistClient(config.GetPluginConfigOrEmpty(v, plugins.GisterPluginName).GetString(githubTokenKey))
	revocationGists := paste.NewGistClient(config.GetPluginConfigOrEmpty(v, plugins.TokenGuardPluginName).GetString(githubTokenKey))

	bot, err := helpscot.NewBot(name, v).
		WithConfigurablePluginCloserErr(plugins.TaggerPluginName, func(c *config.PluginConfig) (io.Closer, *helpscot.Plugin, error) {
			return plugins.NewTagger(c, tagsStorer)
		}).
		WithPluginErr(plugins.NewGister(gists)).
		WithPluginCloserErr(plugins.NewTokenGuard(config.GetPluginConfigOrEmpty(v, plugins.TokenGuardPluginName), revocationGists)).
		WithPlugin(plugins.NewDocSearch(newDocSearcher(config.GetPluginConfigOrEmpty(v, plugins.DocSearchPluginName)))).
		WithPlugin(plugins.NewRunner(newExecutor(config.GetPluginConfigOrEmpty(v, plugins.RunnerPluginName)))).
		WithPlugin(plugins.NewGoogleIt()).
		WithPlugin(plugins.NewLines()).
		WithPlugin(plugins.NewVersioner(name, helpscot.VERSION)).
		Build()
	if err != nil {
		tagsStorer.Close()
		return err
	}
	defer bot.Close()

	return bot.Run(ctx)
}

// newStorer returns the storer of a plugin: a datastore one cached in memory when a google cloud project
// is configured, a leveldb one under the storage path otherwise
func newStorer(v *viper.Viper, pluginName string) (storer store.StringStorer, err error) {
	projectID := v.GetString(config.StorageGCloudProjectIDKey)
	if projectID == "" {
		return store.NewLevelDB(pluginName, v.GetString(config.StoragePathKey))
	}

	options := make([]option.ClientOption, 0)
	if credentialsFile := v.GetString(config.StorageGCloudCredentialsFileKey); credentialsFile != "" {
		options = append(options, option.WithCredentialsFile(credentialsFile))
	}

	persistentStorer, err := datastoredb.New(pluginName, projectID, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open [%s] datastore in project [%s]", pluginName, projectID)
	}

	return inmemorydb.New(persistentStorer)
}

func newDocSearcher(c *config.PluginConfig) *docsearch.Client {
	if c.IsSet(baseURLKey) {
		return docsearch.New(docsearch.OptionBaseURL(c.GetString(baseURLKey)))
	}

	return docsearch.New()
}

func newExecutor(c *config.PluginConfig) *sandbox.PistonClient {
	if c.IsSet(baseURLKey) {
		return sandbox.NewPistonClient(sandbox.OptionBaseURL(c.GetString(baseURLKey)))
	}

	return sandbox.NewPistonClient()
}
