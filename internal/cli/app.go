// Package cli holds the rehab360 command tree: the API server, account
// commands and the local journal that syncs with the server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/config"
	"github.com/terraincognita07/rehab360/internal/logging"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/store"
	"go.uber.org/zap"
)

var Version = "dev"

type Streams struct {
	In  *os.File
	Out io.Writer
	Err io.Writer
}

func StandardStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type runtime struct {
	streams    Streams
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func NewRootCommand(streams Streams) *cobra.Command {
	rt := &runtime{streams: streams}

	root := &cobra.Command{
		Use:   "rehab360",
		Short: "Recovery journal with sleep, craving and mood tracking",
		Long: `rehab360 keeps a daily wellness journal on this machine, syncs it with a
rehab360 server and talks to the Ally assistant.

Run "rehab360 serve" to start the server side.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newServeCommand(rt),
		newResetPasswordCommand(rt),
		newRegisterCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newLogCommand(rt),
		newUpdateCommand(rt),
		newListCommand(rt),
		newSyncCommand(rt),
		newClearCommand(rt),
		newInsightsCommand(rt),
		newExportCommand(rt),
		newPredictCommand(rt),
		newChatCommand(rt),
	)
	return root
}

// Execute runs the command tree and prints a failure the way the commands
// print results.
func Execute(ctx context.Context, streams Streams, args []string) int {
	root := NewRootCommand(streams)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(streams.Err, RenderError(err))
		return 1
	}
	return 0
}

func (rt *runtime) init() error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewWithWriter(cfg.Log.Level, cfg.Log.Format, rt.streams.Err)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.logger = logger
	return nil
}

func (rt *runtime) remoteClient() *remote.Client {
	return remote.New(rt.cfg.Client.BaseURL, &http.Client{Timeout: rt.cfg.Client.RequestTimeout}, rt.logger)
}

// streamingClient has no overall timeout; chat bounds each reply itself.
func (rt *runtime) streamingClient() *remote.Client {
	return remote.New(rt.cfg.Client.BaseURL, &http.Client{}, rt.logger)
}

// withStore opens the local journal, loads it and closes it after fn.
func (rt *runtime) withStore(fn func(journal *store.Store, client *remote.Client) error) (err error) {
	blob, err := store.OpenBadgerBlob(store.BadgerBlobConfig{
		Dir:      rt.cfg.Store.Dir,
		InMemory: rt.cfg.Store.InMemory,
		Logger:   rt.logger,
	})
	if err != nil {
		return err
	}

	client := rt.remoteClient()
	journal := store.New(store.Options{
		Blob:         blob,
		Remote:       client,
		SeedDemoData: rt.cfg.Store.SeedDemoData,
		Logger:       rt.logger,
	})
	defer func() {
		if closeErr := journal.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	journal.LoadInitial()
	return fn(journal, client)
}

func requireSession(journal *store.Store) (store.Session, error) {
	session, ok := journal.Session()
	if !ok {
		return store.Session{}, fmt.Errorf("%w: run `rehab360 login` first", store.ErrNoSession)
	}
	return session, nil
}

// describeRemoteError turns an expired session into a hint.
func describeRemoteError(err error) error {
	if errors.Is(err, remote.ErrUnauthorized) {
		return fmt.Errorf("%w: session expired, run `rehab360 login` again", err)
	}
	return err
}
