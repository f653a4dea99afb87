package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/platinummonkey/menuguard/pkg/audit"
	"github.com/platinummonkey/menuguard/pkg/rbac"
)

func newPurgeLogsCommand() *Command {
	cmd := &Command{
		Name:        "purge-logs",
		Description: "Delete system logs past the retention window",
		Flags:       flag.NewFlagSet("purge-logs", flag.ContinueOnError),
	}
	db := addDBFlags(cmd.Flags)
	days := cmd.Flags.Int("days", audit.DefaultRetentionPolicy().RetentionDays, "Retention in days")
	bucket := cmd.Flags.String("bucket", os.Getenv("MENUGUARD_AUDIT_ARCHIVE_BUCKET"), "S3 bucket to archive purged rows to")
	prefix := cmd.Flags.String("prefix", envOr("MENUGUARD_AUDIT_ARCHIVE_PREFIX", "system-logs/"), "S3 key prefix")
	region := cmd.Flags.String("region", envOr("MENUGUARD_AUDIT_ARCHIVE_REGION", "us-east-1"), "AWS region")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *days < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		ctx := context.Background()
		conn, dialect, err := db.open(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		if _, err := rbac.Migrate(ctx, conn, dialect); err != nil {
			return err
		}

		policy := audit.RetentionPolicy{RetentionDays: *days}
		var archiver audit.Archiver
		if *bucket != "" {
			s3Archiver, err := audit.NewS3ArchiverFromEnv(ctx, *region, *bucket, *prefix)
			if err != nil {
				return err
			}
			archiver = s3Archiver
			policy.ArchiveEnabled = true
		}

		deleted, err := audit.NewDBStore(conn, archiver).Cleanup(ctx, policy)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Purged %d log entries older than %d days\n", deleted, *days)
		return nil
	}
	return cmd
}
