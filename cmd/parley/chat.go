package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/changefeed"
	"github.com/parleyhq/parley/httpapi"
	pjson "github.com/parleyhq/parley/json"
	"github.com/parleyhq/parley/prefs"
	"github.com/parleyhq/parley/reconcile"
	"github.com/parleyhq/parley/wsfeed"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation with the audit assistant",
	Long: `chat opens a REPL against the audit backend. Messages you type
are sent to the assistant; replies pushed for your account over the
change feed or the socket gateway appear as they arrive.

Commands inside the REPL:
  /model <name>   switch the backend model (persisted)
  /upload <path>  send a document for analysis
  /new            start a fresh conversation
  /quit           exit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(viper.GetBool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	owner := viper.GetString("owner")
	if owner == "" {
		return fmt.Errorf("--owner (or PARLEY_OWNER) is required: the client id comes from your auth session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dispatcher := httpapi.New(viper.GetString("backend-url"),
		httpapi.WithAgentType(viper.GetString("agent")),
		httpapi.WithLogger(logger),
	)

	renderer := newRenderer(parley.DefaultTheme())
	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithAgentType(viper.GetString("agent")),
		reconcile.WithPreferences(prefs.NewFileStore(filepath.Join(configDir(), "prefs.json"))),
		reconcile.WithEventHandler(func(ev parley.Event) {
			switch e := ev.(type) {
			case parley.EventMerged:
				fmt.Println(renderer.message(e.Message))
			case parley.EventDegraded:
				fmt.Println(renderer.status("realtime/history unavailable, continuing memory-only"))
			}
		}),
	}
	if m := viper.GetString("model"); m != "" {
		opts = append(opts, reconcile.WithModel(m))
	}

	if feedURL := viper.GetString("feed-url"); feedURL != "" {
		feed := changefeed.New(feedURL, changefeed.WithLogger(logger))
		opts = append(opts, reconcile.WithListeners(feed), reconcile.WithHistory(feed))
	}
	if wsURL := viper.GetString("ws-url"); wsURL != "" {
		opts = append(opts, reconcile.WithListeners(wsfeed.New(wsURL, wsfeed.WithLogger(logger))))
	}

	rec := reconcile.New(owner, dispatcher, opts...)
	rec.Start(ctx)
	defer rec.Close() //nolint:errcheck

	fmt.Println(renderer.status(fmt.Sprintf("session %s, model %s — /quit to exit", rec.SessionID(), rec.CurrentModel())))

	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := handleLine(ctx, rec, renderer, line); done {
			break
		}
	}

	if path := viper.GetString("transcript"); path != "" {
		t := pjson.Transcript{
			Session:  parley.Session{ID: rec.SessionID(), Owner: owner},
			Messages: rec.Messages(),
		}
		if err := pjson.Save(path, t); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Transcript saved to", path)
	}
	return scanner.Err()
}

// handleLine executes one REPL line and reports whether to exit.
func handleLine(ctx context.Context, rec *reconcile.Reconciler, renderer *renderer, line string) bool {
	switch {
	case line == "/quit" || line == "/exit":
		return true
	case line == "/new":
		rec.Reset()
		fmt.Println(renderer.status("new conversation: " + rec.SessionID()))
	case strings.HasPrefix(line, "/model "):
		model := strings.TrimSpace(strings.TrimPrefix(line, "/model "))
		rec.SetCurrentModel(model)
		fmt.Println(renderer.status("model set to " + model))
	case strings.HasPrefix(line, "/upload "):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
		upload, err := readUpload(path)
		if err != nil {
			fmt.Println(renderer.errorLine(err))
			return false
		}
		if err := rec.SendMessage(ctx, "", "", upload); err != nil {
			fmt.Println(renderer.errorLine(err))
		}
	default:
		if err := rec.SendMessage(ctx, line, "", nil); err != nil {
			fmt.Println(renderer.errorLine(err))
		}
	}
	return false
}

// readUpload loads a document from disk into an in-memory Upload.
func readUpload(path string) (*parley.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &parley.Upload{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Data:        data,
	}, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".txt", ".md":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// newLogger builds the process logger, debug level when requested.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}
