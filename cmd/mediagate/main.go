package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scopedfs/mediagate/internal/logger"
	"github.com/scopedfs/mediagate/pkg/config"
	"github.com/scopedfs/mediagate/pkg/policy"
)

const usage = `mediagate - legacy storage access policy tool

Usage:
  mediagate decide   -app <id> -op <operation> -path <path> [flags]
  mediagate classify -app <id> -path <path>
  mediagate demo     -app <id> [flags]
  mediagate config   [-config <file>]

Commands:
  decide    Evaluate an access decision for a caller and path
  classify  Show how a path is classified for a caller
  demo      Run mediated operations against an in-memory gateway
  config    Print the effective configuration as YAML

Run 'mediagate <command> -h' for command-specific flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "decide":
		err = runDecide(os.Args[2:])
	case "classify":
		err = runClassify(os.Args[2:])
	case "demo":
		err = runDemo(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "mediagate: %v\n", err)
		os.Exit(1)
	}
}

// parseOperation maps a CLI operation name to a policy operation.
func parseOperation(name string) (policy.Operation, error) {
	switch name {
	case "create":
		return policy.OpCreateFile, nil
	case "mkdir":
		return policy.OpMkdir, nil
	case "delete":
		return policy.OpDelete, nil
	case "read":
		return policy.OpOpenRead, nil
	case "write":
		return policy.OpOpenWrite, nil
	case "list":
		return policy.OpList, nil
	default:
		return 0, fmt.Errorf("unknown operation %q (supported: create, mkdir, delete, read, write, list)", name)
	}
}

func runDecide(args []string) error {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: standard location)")
	app := fs.String("app", "", "Calling app identifier (required)")
	op := fs.String("op", "", "Operation: create, mkdir, delete, read, write, list, rename (required)")
	path := fs.String("path", "", "Target path (required)")
	dest := fs.String("dest", "", "Destination path (rename only)")
	legacy := fs.Bool("legacy", true, "Caller runs under legacy external storage")
	read := fs.Bool("read", false, "Caller holds the read permission")
	write := fs.Bool("write", false, "Caller holds the write permission")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *app == "" || *op == "" || *path == "" {
		fs.Usage()
		return fmt.Errorf("decide: -app, -op and -path are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return err
	}

	engine := config.CreateEngine(&cfg.Policy)
	caller := policy.CallerContext{
		AppID:        *app,
		Legacy:       *legacy,
		ReadGranted:  *read,
		WriteGranted: *write,
	}

	var decision policy.Decision
	if *op == "rename" {
		if *dest == "" {
			return fmt.Errorf("decide: rename requires -dest")
		}
		src, err := policy.ParsePath(*path)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", *path, err)
		}
		dst, err := policy.ParsePath(*dest)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", *dest, err)
		}
		decision = engine.DecideRename(caller,
			policy.Classify(src, caller.AppID),
			policy.Classify(dst, caller.AppID))
	} else {
		operation, err := parseOperation(*op)
		if err != nil {
			return err
		}
		parsed, err := policy.ParsePath(*path)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", *path, err)
		}
		decision = engine.Decide(operation, caller, policy.Classify(parsed, caller.AppID))
	}

	fmt.Println(decision)
	return nil
}

func runClassify(args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	app := fs.String("app", "", "Calling app identifier (required)")
	path := fs.String("path", "", "Path to classify (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *app == "" || *path == "" {
		fs.Usage()
		return fmt.Errorf("classify: -app and -path are required")
	}

	parsed, err := policy.ParsePath(*path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", *path, err)
	}

	fmt.Println(policy.Classify(parsed, *app))
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (default: standard location)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	out, err := cfg.ToYAML()
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}
