package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	catalogapp "snd_media/server/catalog/app"
	"snd_media/server/catalog/domain"
	"snd_media/server/catalog/service"
	commonlog "snd_media/server/common/log"
)

type rootOptions struct {
	source catalogapp.SourceConfig
	sink   catalogapp.SinkConfig
	site   catalogapp.SiteConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		source: catalogapp.LoadSourceConfig(),
		sink:   catalogapp.LoadSinkConfig(),
		site:   catalogapp.LoadSiteConfig(),
	}

	root := &cobra.Command{
		Use:   "catalog",
		Short: "Generate static movie pages and the sitemap from the SND catalog",
		Long: `Generate static movie pages and the sitemap from the SND catalog.

The catalog is read from a JSON file (an array or {"movies": [...]}), a JSON document
stored in redis, or a postgres table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.source.Kind, "source", opts.source.Kind, "Catalog source: file, redis or postgres")
	pf.StringVar(&opts.source.File, "file", opts.source.File, "Catalog JSON file for --source file")
	pf.StringVar(&opts.source.RedisAddr, "redis-addr", opts.source.RedisAddr, "Redis address for --source redis")
	pf.StringVar(&opts.source.RedisKey, "redis-key", opts.source.RedisKey, "Redis key holding the catalog JSON")
	pf.IntVar(&opts.source.RedisDB, "redis-db", opts.source.RedisDB, "Redis database number")
	pf.StringVar(&opts.source.PostgresDSN, "postgres-dsn", opts.source.PostgresDSN, "Postgres DSN for --source postgres")
	pf.StringVar(&opts.source.Table, "table", opts.source.Table, "Postgres table holding the catalog")
	pf.StringVar(&opts.sink.Kind, "sink", opts.sink.Kind, "Where to write artifacts: dir or minio")
	pf.StringVar(&opts.sink.Bucket, "bucket", opts.sink.Bucket, "MinIO bucket for --sink minio")
	pf.StringVar(&opts.sink.Prefix, "prefix", opts.sink.Prefix, "MinIO key prefix for --sink minio")

	root.AddCommand(newPagesCmd(opts), newSitemapCmd(opts))
	return root
}

func loadCatalog(cmd *cobra.Command, cfg catalogapp.SourceConfig) ([]domain.Movie, error) {
	loader, closeLoader, err := catalogapp.OpenLoader(cmd.Context(), cfg)
	defer closeLoader()
	if err != nil {
		return nil, err
	}
	movies, err := loader.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	commonlog.Infof("loaded %d catalog records from %s", len(movies), cfg.Kind)
	return movies, nil
}

func newPagesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Write one redirecting HTML page per movie",
		Long: `Write one <slug>.html page per movie. Each page carries SEO, Open Graph and
schema.org metadata and redirects the browser to /index.html#<slug>.html.

Example:
  catalog pages --source file --file movies.json --out app/src/main/assets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			movies, err := loadCatalog(cmd, opts.source)
			if err != nil {
				return err
			}
			sink, err := catalogapp.OpenSink(cmd.Context(), opts.sink)
			if err != nil {
				return err
			}
			report, err := service.PageGenerator{SiteURL: opts.site.SiteURL, Sink: sink}.Generate(cmd.Context(), movies)
			if err != nil {
				return err
			}
			commonlog.Infof("generated %d movie pages, skipped %d", len(report.Written), report.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d movie pages\n", len(report.Written))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.sink.Dir, "out", "o", opts.sink.Dir, "Output directory for --sink dir")
	cmd.Flags().StringVar(&opts.site.SiteURL, "site-url", opts.site.SiteURL, "Public site URL used for canonical links")
	return cmd
}

func newSitemapCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write sitemap.xml for every movie in the catalog",
		Long: `Write a sitemap with one <url> per movie, stamped with today's date.

With --out - (the default) the sitemap goes to stdout. With --sink minio the base name of
--out is used as the object key.

Example:
  catalog sitemap --domain https://www.soundora-music.com --out sitemap.xml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			movies, err := loadCatalog(cmd, opts.source)
			if err != nil {
				return err
			}
			set := service.BuildSitemap(movies, service.SitemapOptions{
				Domain:      opts.site.Domain,
				BasePath:    opts.site.BasePath,
				HashRouting: opts.site.HashRouting,
				Now:         time.Now(),
			})

			if out == "-" && opts.sink.Kind != catalogapp.SinkMinIO {
				return service.WriteSitemap(cmd.OutOrStdout(), set)
			}

			name := filepath.Base(out)
			if out == "-" {
				name = "sitemap.xml"
			}
			sinkCfg := opts.sink
			if sinkCfg.Kind != catalogapp.SinkMinIO {
				sinkCfg.Dir = filepath.Dir(out)
			}
			sink, err := catalogapp.OpenSink(cmd.Context(), sinkCfg)
			if err != nil {
				return err
			}
			if err := service.PutSitemap(cmd.Context(), sink, name, set); err != nil {
				return err
			}
			commonlog.Infof("wrote sitemap %s with %d urls", name, len(set.URLs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Sitemap path, or - for stdout")
	cmd.Flags().StringVar(&opts.site.Domain, "domain", opts.site.Domain, "Site origin without trailing slash")
	cmd.Flags().StringVar(&opts.site.BasePath, "base-path", opts.site.BasePath, "Optional path prefix such as /app")
	cmd.Flags().BoolVar(&opts.site.HashRouting, "hash-routing", opts.site.HashRouting, "Emit /#<slug> locations for hash-routed clients")
	return cmd
}
