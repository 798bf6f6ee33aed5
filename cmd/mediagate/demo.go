package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/scopedfs/mediagate/internal/logger"
	"github.com/scopedfs/mediagate/pkg/config"
	"github.com/scopedfs/mediagate/pkg/content"
	"github.com/scopedfs/mediagate/pkg/gateway"
	"github.com/scopedfs/mediagate/pkg/policy"
	"github.com/scopedfs/mediagate/pkg/store"
)

// demoOtherApp owns the foreign private directory in the demo tree.
const demoOtherApp = "com.android.shell"

// runDemo drives a fixed sequence of mediated operations against an
// in-memory gateway seeded with the usual shared-tree layout, showing
// the platform-visible outcome of each operation for the given caller.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: standard location)")
	app := fs.String("app", "", "Calling app identifier (required)")
	legacy := fs.Bool("legacy", true, "Caller runs under legacy external storage")
	read := fs.Bool("read", false, "Caller holds the read permission")
	write := fs.Bool("write", false, "Caller holds the write permission")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *app == "" {
		fs.Usage()
		return fmt.Errorf("demo: -app is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return err
	}

	ctx := context.Background()

	// The demo always runs on in-memory stores: it exists to show
	// decisions, not to touch configured persistence.
	meta, err := config.CreateMetadataStore(ctx, &config.MetadataConfig{Type: "memory"})
	if err != nil {
		return err
	}
	defer meta.Close()

	blobs, err := config.CreateContentStore(ctx, &config.ContentConfig{Type: "memory"})
	if err != nil {
		return err
	}
	defer blobs.Close()

	if err := seedDemoTree(ctx, meta, blobs, *app); err != nil {
		return fmt.Errorf("failed to seed demo tree: %w", err)
	}

	gw := gateway.New(config.CreateEngine(&cfg.Policy), meta, blobs)
	caller := policy.CallerContext{
		AppID:        *app,
		Legacy:       *legacy,
		ReadGranted:  *read,
		WriteGranted: *write,
	}

	fmt.Printf("caller=%s legacy=%v read=%v write=%v\n\n",
		caller.AppID, caller.Legacy, caller.ReadGranted, caller.WriteGranted)
	runWalkthrough(ctx, os.Stdout, gw, caller)
	return nil
}

// seedDemoTree plants the standard top-level directories, the caller's
// private directories, another app's private directory, and a couple
// of sample files, writing through the stores directly so no policy
// decision applies to the setup.
func seedDemoTree(ctx context.Context, meta store.MetadataStore, blobs content.Store, appID string) error {
	dirs := []string{
		"Music",
		"DCIM",
		"Movies",
		"Documents",
		"Android",
		"Android/data",
		"Android/media",
		"Android/data/" + appID,
		"Android/media/" + appID,
		"Android/data/" + demoOtherApp,
	}
	for _, dir := range dirs {
		if err := meta.Mkdir(ctx, dir); err != nil {
			return err
		}
	}

	files := []struct {
		path string
		body string
	}{
		{"Music/sample.mp3", "mp3 sample content"},
		{"DCIM/photo.jpg", "jpeg sample content"},
	}
	for _, f := range files {
		id := content.NewID()
		if err := blobs.Write(ctx, id, []byte(f.body)); err != nil {
			return err
		}
		if err := meta.CreateFile(ctx, f.path, id, uint64(len(f.body))); err != nil {
			return err
		}
	}

	return nil
}

// runWalkthrough executes one mediated operation per decision shape
// and reports each platform-visible outcome on a line of its own.
func runWalkthrough(ctx context.Context, w io.Writer, gw *gateway.Gateway, caller policy.CallerContext) {
	report := func(op, target, outcome string) {
		fmt.Fprintf(w, "%-7s %-40s -> %s\n", op, target, outcome)
	}
	boolOutcome := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "false"
	}

	if err := gw.Create(ctx, caller, "Music/demo.mp3", []byte("demo")); err != nil {
		report("create", "Music/demo.mp3", err.Error())
	} else {
		report("create", "Music/demo.mp3", "ok")
	}

	report("mkdir", "Documents/reports", boolOutcome(gw.Mkdir(ctx, caller, "Documents/reports")))

	if names := gw.List(ctx, caller, "Music"); names == nil {
		report("list", "Music", "nil")
	} else {
		report("list", "Music", fmt.Sprintf("%d entries", len(names)))
	}

	if data, err := gw.OpenRead(ctx, caller, "Music/sample.mp3"); err != nil {
		report("read", "Music/sample.mp3", err.Error())
	} else {
		report("read", "Music/sample.mp3", fmt.Sprintf("%d bytes", len(data)))
	}

	report("rename", "DCIM/photo.jpg -> Movies/photo.jpg",
		boolOutcome(gw.Rename(ctx, caller, "DCIM/photo.jpg", "Movies/photo.jpg")))

	otherFile := "Android/data/" + demoOtherApp + "/intruder.txt"
	if err := gw.Create(ctx, caller, otherFile, []byte("x")); err != nil {
		report("create", otherFile, err.Error())
	} else {
		report("create", otherFile, "ok")
	}

	ownFile := "Android/data/" + caller.AppID + "/private.bin"
	if err := gw.Create(ctx, caller, ownFile, []byte("x")); err != nil {
		report("create", ownFile, err.Error())
	} else {
		report("create", ownFile, "ok")
	}
}
