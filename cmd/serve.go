package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/KaramelBytes/chefscore-cli/internal/config"
	"github.com/KaramelBytes/chefscore-cli/internal/server"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveDataset string
	serveURL     string
	serveDir     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve week collections and analytics as a read-only JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		scfg, err := serverConfig(c)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = c.ServerAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(scfg).ListenAndServe(ctx, addr)
	},
}

// serverConfig picks exactly one week source: a dataset, a directory, or a
// URL template (falling back to source_url).
func serverConfig(c *cfgpkg.Global) (server.Config, error) {
	ropt, err := rosterOptions(c, "")
	if err != nil {
		return server.Config{}, err
	}
	scfg := server.Config{
		Roster:         ropt,
		Ranking:        rankingOptions(c),
		Snapshot:       snapshotOptions(c),
		AllowedOrigins: c.AllowedOrigins,
		Logger:         appLogger().Sugar(),
	}

	set := 0
	for _, s := range []string{serveDataset, serveURL, serveDir} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return server.Config{}, fmt.Errorf("use only one of --dataset, --url or --dir")
	}
	switch {
	case serveDataset != "":
		d, err := loadDataset(c, serveDataset)
		if err != nil {
			return server.Config{}, err
		}
		scfg.Source = d
		scfg.Weeks = d
	case serveDir != "":
		scfg.Source = transport.FileSource{Dir: serveDir}
	default:
		tmpl := serveURL
		if tmpl == "" {
			tmpl = c.SourceURL
		}
		if tmpl == "" {
			return server.Config{}, fmt.Errorf("no week source: pass --dataset, --dir or --url, or set source_url")
		}
		src, err := transport.NewHTTPSource(tmpl, httpOptions(c))
		if err != nil {
			return server.Config{}, err
		}
		scfg.Source = src
	}
	return scfg, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server_addr)")
	serveCmd.Flags().StringVarP(&serveDataset, "dataset", "d", "", "serve the weeks stored in this dataset")
	serveCmd.Flags().StringVar(&serveURL, "url", "", "URL template containing {week} (default source_url)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "serve <dir>/<week>.csv|.xlsx files")
}
