package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/boundary"
	"github.com/smartcity/incidentmap/internal/cluster"
	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/repository/postgres"
	"github.com/smartcity/incidentmap/internal/repository/sqlstore"
	"github.com/smartcity/incidentmap/internal/service"
	"github.com/smartcity/incidentmap/internal/viewport"
)

func addPredicateFlags(cmd *cobra.Command, p *domain.FilterPredicate) {
	cmd.Flags().StringVar(&p.District, "district", "", "district (exact match)")
	cmd.Flags().StringVar(&p.Complaint, "complaint", "", "complaint (exact match)")
	cmd.Flags().StringVar(&p.CallType, "call-type", "", "call type (exact match)")
}

func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the sorted distinct district, complaint and call type values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			snapshot, err := cc.Repo.FetchSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), service.BuildVocabularies(snapshot))
		},
	}
}

func newFilterCmd() *cobra.Command {
	var (
		p     domain.FilterPredicate
		local bool
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the incidents matching every given attribute",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var incidents []domain.Incident
			if local {
				snapshot, err := cc.Repo.FetchSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				incidents = service.NewIndex(snapshot).Apply(p)
			} else {
				incidents, err = cc.Repo.FilterIncidents(cmd.Context(), p)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), incidents)
		},
	}
	addPredicateFlags(cmd, &p)
	cmd.Flags().BoolVar(&local, "local", false, "filter the fetched snapshot in memory instead of in the data source")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		p             domain.FilterPredicate
		zoom          float64
		width, height float64
		boundaryFile  string
		members       bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run the filter, cluster and viewport pipeline once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cc.Config

			vp, err := viewport.New(cfg.Map.Padding(), cfg.Map.MinZoom, cfg.Map.MaxZoom)
			if err != nil {
				return err
			}
			if boundaryFile == "" {
				boundaryFile = cfg.Boundary.File
			}
			layer, err := boundary.Load(boundaryFile, cfg.Boundary.NameProperty)
			if err != nil {
				cc.Logger.Warn("rendering without district boundaries", zap.Error(err))
				layer = boundary.Empty()
			}

			sess := service.NewSession("cli", service.SessionDeps{
				Clusterer:   cluster.New(cfg.Map.ClusterOptions()),
				Viewport:    vp,
				Boundaries:  layer,
				Logger:      cc.Logger,
				DefaultZoom: cfg.Map.Zoom,
			})
			if err := sess.Load(cmd.Context(), cc.Repo); err != nil {
				return err
			}

			view := service.MapView{Width: width, Height: height}
			if cmd.Flags().Changed("zoom") {
				view.Zoom = &zoom
			}
			res := sess.SetFilter(domain.PredicateUpdate{
				District:  &p.District,
				Complaint: &p.Complaint,
				CallType:  &p.CallType,
			}, view)
			if !members {
				for i := range res.Clusters {
					res.Clusters[i].Members = nil
					res.Clusters[i].Popups = nil
				}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	addPredicateFlags(cmd, &p)
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "map zoom (default MAP_ZOOM)")
	cmd.Flags().Float64Var(&width, "width", 0, "map width in pixels, enables fitted zoom")
	cmd.Flags().Float64Var(&height, "height", 0, "map height in pixels, enables fitted zoom")
	cmd.Flags().StringVar(&boundaryFile, "boundaries", "", "district GeoJSON (default BOUNDARY_FILE)")
	cmd.Flags().BoolVar(&members, "members", false, "include cluster member incidents and their popup text")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load incidents into the SQLite database (demo data when --file is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var incidents []domain.Incident
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("seed: failed to read %s: %w", file, err)
				}
				if err := json.Unmarshal(data, &incidents); err != nil {
					return fmt.Errorf("seed: failed to decode %s: %w", file, err)
				}
			} else {
				incidents, err = postgres.NewMockRepository().FetchSnapshot(cmd.Context())
				if err != nil {
					return err
				}
			}

			path := cc.Config.Database.SQLitePath
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("seed: failed to create %s: %w", filepath.Dir(path), err)
			}
			store, err := sqlstore.OpenSQLite(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Insert(cmd.Context(), incidents)
			if err != nil {
				return err
			}
			cc.Logger.Info("seeded incidents", zap.Int("count", n), zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d incidents into %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of incidents in the /api/incidents shape")
	return cmd
}
