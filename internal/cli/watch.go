package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/uploader"
	"github.com/jasperwreed/pixel-chat/internal/watcher"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	dir      string
	existing bool
	settle   time.Duration
	workers  int
	upload   api.UploadOptions
}

func NewWatchCommand(env *environment) *cobra.Command {
	var opts watchOptions
	var tags []string
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Upload new images dropped into a directory",
		Long: `Watch a directory and upload every image file created in it. Runs until
interrupted, then waits for queued uploads to finish.`,
		Example: `  # Upload new photos as they arrive
  pixel-chat watch ~/Pictures/inbox

  # Also upload what is already there
  pixel-chat watch ~/Pictures/inbox --existing --tags inbox`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := NewValidator()
			dir, err := v.ResolvePath(args[0])
			if err != nil {
				return err
			}
			if err := v.ValidateDirectory(dir); err != nil {
				return err
			}

			opts.dir = dir
			opts.upload = api.UploadOptions{AutoIndex: !noIndex, Tags: tags}
			if opts.workers <= 0 {
				opts.workers = env.app.Config.UploadWorkers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), env.app, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.existing, "existing", false, "Also upload images already in the directory")
	cmd.Flags().DurationVar(&opts.settle, "settle", watcher.DefaultSettle, "Wait this long after the last write before uploading")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent uploads (default: $PIXELCHAT_UPLOAD_WORKERS)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach to uploads")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Store without indexing for search")

	return cmd
}

func runWatch(ctx context.Context, w io.Writer, a *app.App, opts watchOptions) error {
	dw, err := watcher.NewDirWatcher(opts.dir, opts.settle, a.Logger)
	if err != nil {
		return err
	}

	var outMu sync.Mutex
	up := uploader.New(a.API, uploader.Config{
		Workers: opts.workers,
		Options: opts.upload,
	}, func(r uploader.Result) {
		outMu.Lock()
		defer outMu.Unlock()
		if r.Err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", r.Path, r.Err)
			return
		}
		fmt.Fprintf(w, "✓ %s -> %s\n", r.Path, r.ImageID)
	}, a.Logger)
	up.Start()

	dw.AddHandler(up.HandleEvent)
	dw.Start()

	outMu.Lock()
	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", dw.Dir())
	outMu.Unlock()

	if opts.existing {
		// The scan waits for queue slots; an interrupt abandons it.
		stopScan := context.AfterFunc(ctx, up.Abort)
		err := dw.ScanExisting()
		stopScan()
		if err != nil {
			_ = dw.Stop()
			up.Abort()
			return fmt.Errorf("failed to scan %s: %w", opts.dir, err)
		}
	}

	<-ctx.Done()

	if err := dw.Stop(); err != nil {
		a.Logger.Warn("failed to stop watcher", "error", err)
	}
	up.Stop()

	m := up.Snapshot()
	fmt.Fprintf(w, "\nUploaded %d, failed %d, skipped %d, dropped %d in %s\n",
		m.Uploaded, m.Failed, m.Skipped, m.Dropped, time.Since(m.StartTime).Round(time.Second))
	return nil
}
