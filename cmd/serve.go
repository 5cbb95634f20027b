// This file is part of pagehub
//
// Copyright (C) 2024  Pagehub Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>

package cmd

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagehub/pagehub/pkg/server"
	"github.com/pagehub/pagehub/pkg/storage"
	_ "github.com/pagehub/pagehub/pkg/storage/filesystem"
	_ "github.com/pagehub/pagehub/pkg/storage/github"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hub server.",
	Run: func(cmd *cobra.Command, args []string) {
		var bucketConfigs []storage.Config
		if err := viper.UnmarshalKey("buckets", &bucketConfigs); err != nil {
			logger.Fatal("failed to load bucket configuration", zap.Error(err))
		}
		if len(bucketConfigs) == 0 {
			logger.Fatal("no buckets configured")
		}

		opts := []server.Option{
			server.WithAddr(addr),
			server.WithLogger(logger),
			server.WithWriteRetry(time.Duration(viper.GetInt("write_retry_seconds")) * time.Second),
		}
		for _, cfg := range bucketConfigs {
			d, err := storage.Open(cfg, logger.With(zap.String("bucket", cfg.Bucket)))
			if err != nil {
				logger.Fatal("failed to open storage driver",
					zap.String("bucket", cfg.Bucket),
					zap.String("kind", cfg.Kind),
					zap.Error(err),
				)
			}
			logger.Info("bucket ready",
				zap.String("bucket", cfg.Bucket),
				zap.String("kind", cfg.Kind),
				zap.String("url_prefix", d.ReadURLPrefix()),
			)
			opts = append(opts, server.WithDriver(cfg.Bucket, d))
		}

		logger.Debug("Listening address: " + addr)
		s, err := server.New(opts...)
		if err != nil {
			logger.Fatal("failed to create new server", zap.Error(err))
		}
		if err := s.Run(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server run failed", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
