package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"

	"ffstatic/internal/logx"
	"ffstatic/internal/paths"
	"ffstatic/internal/platform"
	"ffstatic/internal/sources"
	"ffstatic/internal/store"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// environment bundles the collaborators every command resolves the same way.
type environment struct {
	registry *platform.Registry
	resolver *paths.Resolver
	store    *store.Store
	logger   hclog.Logger
}

func loadEnvironment(stderr io.Writer) (*environment, error) {
	mode, err := paths.ParseMode(storageMode)
	if err != nil {
		return nil, err
	}
	resolver, err := paths.NewResolver(paths.Options{Mode: mode, Root: storageHome})
	if err != nil {
		return nil, err
	}
	logger := logx.Console(stderr, verbose)
	return &environment{
		registry: platform.Default(),
		resolver: resolver,
		store:    store.New(resolver.ConfigPath(), store.WithLogger(logger)),
		logger:   logger,
	}, nil
}

// sourceTable returns the built-in table overlaid with the operator file, if
// one was given.
func sourceTable(path string) (sources.Table, error) {
	table := sources.Default()
	if path == "" {
		return table, nil
	}
	overlay, err := sources.LoadFile(path)
	if err != nil {
		return sources.Table{}, fmt.Errorf("load sources: %w", err)
	}
	return table.Merge(overlay), nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := jsonCodec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
