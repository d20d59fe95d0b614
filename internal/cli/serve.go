package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/server"
	"github.com/matzehuels/masonry/pkg/store"
	"github.com/matzehuels/masonry/pkg/store/mongo"
)

const (
	defaultAddr = ":8080"

	// apiKeyPrefix namespaces API cache entries in a shared Redis.
	apiKeyPrefix = "masonry:api:"
)

// serveFlags holds the command-line flags for the serve command. Empty
// values fall back to the [server] and [cache] sections of the config file.
type serveFlags struct {
	addr    string
	redis   string
	mongo   string
	mongoDB string
	timeout time.Duration
	noCache bool
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout HTTP API",
		Long: `Serve the layout HTTP API.

Layouts are cached in Redis when --redis is given (shared between
instances), otherwise in the local cache directory. Computed layouts are
stored in MongoDB when --mongo is given, otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), c.resolveServeFlags(flags))
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().StringVar(&flags.redis, "redis", "", "Redis URL for the shared cache, e.g. redis://localhost:6379/0")
	cmd.Flags().StringVar(&flags.mongo, "mongo", "", "MongoDB URI for layout storage")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", "", "MongoDB database name (default "+mongo.DefaultDatabase+")")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", server.DefaultRequestTimeout, "per-request timeout")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}

// resolveServeFlags fills unset flags from the config file.
func (c *CLI) resolveServeFlags(f serveFlags) serveFlags {
	if cfg := c.Config; cfg != nil {
		if f.addr == "" {
			f.addr = cfg.Server.Addr
		}
		if f.redis == "" {
			f.redis = cfg.Cache.Redis
		}
		if f.mongo == "" {
			f.mongo = cfg.Server.Mongo
		}
		if f.mongoDB == "" {
			f.mongoDB = cfg.Server.MongoDatabase
		}
	}
	if f.addr == "" {
		f.addr = defaultAddr
	}
	return f
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	runner, err := c.newServerRunner(ctx, flags)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := runner.Close(closeCtx); err != nil {
			c.Logger.Warn("close runner", "err", err)
		}
	}()

	srv := server.New(runner, c.Logger, server.WithTimeout(flags.timeout))
	return srv.ListenAndServe(ctx, flags.addr)
}

// newServerRunner wires the cache, keyer and store for the API.
func (c *CLI) newServerRunner(ctx context.Context, flags serveFlags) (*pipeline.Runner, error) {
	var (
		lc    cache.Cache
		keyer cache.Keyer
		st    store.Store
		err   error
	)

	switch {
	case flags.noCache:
		lc = cache.NewNullCache()
	case flags.redis != "":
		lc, err = cache.NewRedisCache(ctx, flags.redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), apiKeyPrefix)
		c.Logger.Info("using redis cache", "prefix", apiKeyPrefix)
	default:
		lc, err = c.newCache(false)
		if err != nil {
			return nil, err
		}
	}

	if flags.mongo != "" {
		ms, err := mongo.Connect(ctx, flags.mongo, flags.mongoDB)
		if err != nil {
			_ = lc.Close()
			return nil, err
		}
		st = ms
		c.Logger.Info("using mongo store", "database", flags.mongoDB)
	}

	runner := pipeline.NewRunner(lc, keyer, st, c.Logger)
	ttl, err := c.Config.CacheTTL(0)
	if err != nil {
		_ = runner.Close(ctx)
		return nil, err
	}
	runner.TTL = ttl
	return runner, nil
}
