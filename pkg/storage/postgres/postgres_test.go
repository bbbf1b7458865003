package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/replyscope/replyscope/pkg/storage"
	"github.com/replyscope/replyscope/pkg/storage/postgres"
	"github.com/replyscope/replyscope/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("REPLYSCOPE_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("REPLYSCOPE_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		ctx := context.Background()
		d, err := postgres.NewDriver(ctx, postgres.Config{DSN: connStr()})
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Exec(ctx, "TRUNCATE analyses, task_snapshots")
		Expect(err).NotTo(HaveOccurred())
		return d
	})
})
