package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/APTrust/storage-gateway/models"
	"github.com/APTrust/storage-gateway/models/registry"
	"github.com/APTrust/storage-gateway/models/service"
	"github.com/APTrust/storage-gateway/storage"
	"github.com/APTrust/storage-gateway/util/cli"
)

func main() {
	opts, err := cli.ParseOpts(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.PrintHelp || opts.Command == "" {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	// Panics if config or clients can't be set up.
	_context := models.NewContext()
	defer _context.Close()

	err = run(context.Background(), _context, opts)
	_context.Metrics.LogSummary(_context.Logger)
	if err != nil {
		_context.Logger.Error(err.Error())
		fmt.Fprintln(os.Stderr, err)
		_context.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, _context *models.Context, opts cli.Options) error {
	user := &registry.User{ID: opts.UserID}
	var entity *registry.Entity
	if opts.EntityID != "" {
		entity = &registry.Entity{InternalID: opts.EntityID}
	}
	switch opts.Command {
	case "init-bucket":
		return _context.InitStorage(ctx)
	case "serve":
		return serve(ctx, _context, opts)
	case "upload":
		if err := opts.RequireArgs(2, "<path> <local file>"); err != nil {
			return err
		}
		return upload(ctx, _context, user, entity, opts)
	case "list":
		if err := opts.RequireArgs(1, "<path>"); err != nil {
			return err
		}
		if opts.Recursive {
			return printJSON(_context.Files.List(ctx, user, opts.Args[0], true))
		}
		page, err := _context.Composer.RenderPage(ctx, user, opts.Args[0], opts.First, entity, opts.MimePrefix)
		if err != nil {
			return err
		}
		return printJSON(page)
	case "get":
		if err := opts.RequireArgs(1, "<file id>"); err != nil {
			return err
		}
		reader := _context.Files.Download(ctx, opts.Args[0])
		if reader == nil {
			return fmt.Errorf("cannot download %s", opts.Args[0])
		}
		defer reader.Close()
		_, err := io.Copy(os.Stdout, reader)
		return err
	case "delete":
		if err := opts.RequireArgs(1, "<file id> [<file id>...]"); err != nil {
			return err
		}
		deleted, err := _context.Deletion.DeleteFiles(ctx, user, opts.Args)
		if printErr := printJSON(deleted); printErr != nil {
			return printErr
		}
		return err
	case "delete-all":
		if err := opts.RequireArgs(1, "<path>"); err != nil {
			return err
		}
		deleted, err := _context.Composer.DeleteAll(ctx, user, opts.Args[0])
		if printErr := printJSON(deleted); printErr != nil {
			return printErr
		}
		return err
	case "import":
		if err := opts.RequireArgs(1, "<file id>"); err != nil {
			return err
		}
		return manualImport(ctx, _context, user, opts)
	case "register-connector":
		if err := opts.RequireArgs(1, "<connector json file>"); err != nil {
			return err
		}
		data, err := os.ReadFile(opts.Args[0])
		if err != nil {
			return err
		}
		connector, err := registry.ConnectorFromJSON(data)
		if err != nil {
			return err
		}
		return _context.RedisClient.ConnectorSave(ctx, connector)
	}
	return fmt.Errorf("unknown command %q", opts.Command)
}

func upload(ctx context.Context, _context *models.Context, user *registry.User, entity *registry.Entity, opts cli.Options) error {
	localPath := opts.Args[1]
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()
	fileUpload := storage.FileUpload{
		Encoding: opts.Encoding,
		Filename: filepath.Base(localPath),
		MimeType: opts.MimeType,
		Reader:   file,
	}
	uploadOpts := storage.UploadOptions{
		Entity:          entity,
		NoTriggerImport: opts.NoTriggerImport,
		ErrorOnExisting: opts.ErrorOnExisting,
	}
	stored, err := _context.Files.Upload(ctx, user, opts.Args[0], fileUpload, uploadOpts)
	if stored != nil {
		if printErr := printJSON(stored); printErr != nil {
			return printErr
		}
	}
	return err
}

func manualImport(ctx context.Context, _context *models.Context, user *registry.User, opts cli.Options) error {
	fileID := opts.Args[0]
	file, err := _context.Files.LoadFile(ctx, user, fileID)
	if err != nil {
		return err
	}
	entityID := opts.EntityID
	if entityID == "" {
		entityID = file.Metadata.EntityID()
	}
	importOpts := service.ImportOptions{
		BypassValidation: opts.BypassValidation,
		ConnectorID:      opts.ConnectorID,
		Manual:           opts.Manual,
	}
	connectors, err := _context.Dispatcher.Dispatch(ctx, user, fileID, file.Metadata.MimeType(), entityID, importOpts)
	if err != nil {
		return err
	}
	return printJSON(connectors)
}

// serve exposes metrics and a health check until interrupted.
func serve(ctx context.Context, _context *models.Context, opts cli.Options) error {
	addr := opts.MetricsListen
	if addr == "" {
		addr = _context.Config.MetricsListen
	}
	if addr == "" {
		return fmt.Errorf("serve needs -metrics-listen or METRICS_LISTEN")
	}
	if err := _context.InitStorage(ctx); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	listenAddr, err := _context.StartMetricsServer(addr)
	if err != nil {
		return err
	}
	fmt.Printf("Serving /metrics and /healthz on %s\n", listenAddr)
	<-ctx.Done()
	_context.Logger.Info("Shutting down")
	return nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printHelp() {
	message := `
storage_gateway stores files in the S3 bucket named in the config and
starts import jobs for files uploaded into the import/ namespace.

Usage: storage_gateway [flags] <command> [args]

Commands:
    init-bucket                      Create the bucket if it doesn't exist
    serve                            Serve /metrics and /healthz until stopped
    upload <path> <local file>       Upload a file to <path>/<file name>
    list <path>                      List files under path, newest first
    get <file id>                    Write a file's content to stdout
    delete <file id>...              Delete files, stopping at first failure
    delete-all <path>                Delete all files under path
    import <file id>                 Start import jobs for a stored file
    register-connector <json file>   Add or update a connector
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
