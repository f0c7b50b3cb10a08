package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/dbmcp/core/infrastructure/di"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	"github.com/hyperterse/dbmcp/core/logger"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// checkCmd validates the configuration and the database connection without
// serving anything.
var checkCmd = &cobra.Command{
	Use:           "check",
	Short:         "Validate configuration and test the database connection",
	RunE:          checkConnection,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkConnection(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), dsnHint(err))
		return err
	}
	configureLogging(cfg)
	log := logger.New("check")

	started := time.Now()
	container, err := di.NewContainer(cmd.Context(), di.Options{
		DSN:           cfg.DSN,
		ReadOnly:      true,
		Version:       GetVersion(),
		AuthToken:     cfg.AuthToken,
		AuthTokenFile: cfg.AuthTokenFile,
		RequireAuth:   cfg.RequireAuth,
	})
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), dsnHint(err))
		return logger.WithTag("check", err)
	}
	defer container.Close(cmd.Context())

	schemas, err := container.SQLService.ListSchemas(cmd.Context())
	if err != nil {
		return logger.WithTag("check", err)
	}

	log.Successf("Connected to %s in %s", container.SQLService.Dialect().DisplayName(), time.Since(started).Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "dsn:       %s\n", dsn.Redact(cfg.DSN))
	fmt.Fprintf(cmd.OutOrStdout(), "dialect:   %s\n", container.SQLService.Dialect())
	fmt.Fprintf(cmd.OutOrStdout(), "transport: %s\n", cfg.Transport)
	fmt.Fprintf(cmd.OutOrStdout(), "readonly:  %t\n", cfg.ReadOnly)
	fmt.Fprintf(cmd.OutOrStdout(), "schemas:   %d\n", len(schemas))
	return nil
}

// dsnHint lists a sample DSN per dialect when err is a DSN problem, and
// returns "" otherwise.
func dsnHint(err error) string {
	if !apperrors.Is(err, apperrors.ErrCodeDSNResolution) && !apperrors.Is(err, apperrors.ErrCodeDSNParse) {
		return ""
	}
	var b strings.Builder
	b.WriteString("Set DSN to a connection string such as:\n")
	for _, sample := range dsn.Samples() {
		b.WriteString("  " + sample + "\n")
	}
	return b.String()
}
