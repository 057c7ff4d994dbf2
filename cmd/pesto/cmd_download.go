package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/config"
	"github.com/kailas-cloud/pesto/internal/transport/pesto"
)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		serverURL    string
		accessKey    string
		parseContent bool
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "download DATABASE",
		Short: "Download a full dump of a database in JSON format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("server-url") {
				a.cfg.Server.URL = serverURL
			}
			if cmd.Flags().Changed("access-key") {
				a.cfg.Server.AccessKey = accessKey
			}
			if a.cfg.Server.AccessKey == "" {
				return errors.New("an access key is required (--access-key or " + config.EnvAccessKey + ")")
			}

			database := args[0]
			l := a.logger.With(zap.String("database", database))
			client := pesto.NewClient(a.cfg.Server.URL, a.cfg.Server.AccessKey,
				time.Duration(a.cfg.Server.TimeoutSec)*time.Second, l)

			docs, err := client.Download(cmd.Context(), database, parseContent)
			if err != nil {
				return fmt.Errorf("download %s: %w", database, err)
			}

			if err := a.writeDump(outPath, docs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d documents found\n", len(docs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&serverURL, "server-url", "s", config.DefaultServerURL, "URL of the Pesto server ($"+config.EnvServerURL+")")
	cmd.Flags().StringVar(&accessKey, "access-key", "", "access key to authenticate to the API ($"+config.EnvAccessKey+")")
	cmd.Flags().BoolVar(&parseContent, "parse-content", true, "parse each document's content field as JSON and merge it")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "write the dump to this file instead of stdout")
	return cmd
}
