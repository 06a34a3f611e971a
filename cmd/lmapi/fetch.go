package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lmapi/internal/artifacts"
)

// newObjectStore is replaced in tests.
var newObjectStore = func(cfg artifacts.S3Config) (artifacts.ObjectStore, error) {
	return artifacts.NewMinioStore(cfg)
}

func fetchCmd(s *settings) *cobra.Command {
	var (
		cfg   artifacts.S3Config
		force bool
	)
	cmd := &cobra.Command{
		Use:   "fetch [prefix]",
		Short: "Download model artifacts from an S3-compatible bucket",
		Long: `Mirror every object under prefix into the artifact directory. Files whose
local size already matches are skipped unless --force is given.`,
		Example: "  lmapi fetch lamini-flan-t5-248m/ --endpoint minio:9000 --bucket models",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			file := s.file.S3
			pick := func(flag, current, fromFile, envKey string) string {
				if fl.Changed(flag) {
					return current
				}
				return firstNonEmpty(fromFile, s.env(envKey))
			}
			cfg.Endpoint = pick("endpoint", cfg.Endpoint, file.Endpoint, "LMAPI_S3_ENDPOINT")
			cfg.Bucket = pick("bucket", cfg.Bucket, file.Bucket, "LMAPI_S3_BUCKET")
			cfg.Region = pick("region", cfg.Region, file.Region, "LMAPI_S3_REGION")
			cfg.AccessKey = firstNonEmpty(file.AccessKey, s.env("LMAPI_S3_ACCESS_KEY"))
			cfg.SecretKey = firstNonEmpty(file.SecretKey, s.env("LMAPI_S3_SECRET_KEY"))
			if !fl.Changed("ssl") {
				cfg.UseSSL = file.UseSSL
			}
			prefix := file.Prefix
			if len(args) == 1 {
				prefix = args[0]
			}
			if s.artifactDir == "" {
				return fmt.Errorf("artifact directory not configured: set --artifact-dir, LMAPI_ARTIFACT_DIR or LLM_ARTIFACT_DIR")
			}

			store, err := newObjectStore(cfg)
			if err != nil {
				return err
			}
			f := &artifacts.Fetcher{Store: store, Force: force, Logger: s.log}
			res, err := f.Fetch(cmd.Context(), prefix, s.artifactDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d file(s), %d up to date, into %s\n", len(res.Downloaded), len(res.Skipped), s.artifactDir)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cfg.Endpoint, "endpoint", "", "S3 endpoint host:port (defaults LMAPI_S3_ENDPOINT)")
	fl.StringVar(&cfg.Bucket, "bucket", "", "Bucket name (defaults LMAPI_S3_BUCKET)")
	fl.StringVar(&cfg.Region, "region", "", "Bucket region (defaults LMAPI_S3_REGION)")
	fl.BoolVar(&cfg.UseSSL, "ssl", false, "Use HTTPS")
	fl.BoolVar(&force, "force", false, "Download files even when the local size matches")
	return cmd
}
