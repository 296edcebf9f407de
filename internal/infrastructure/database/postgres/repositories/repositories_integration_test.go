//go:build integration

// Package repositories_test exercises the PostgreSQL repositories against a
// real database. Tests require Docker and are gated behind the "integration"
// build tag.
package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres/repositories"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// startPostgres launches a PostgreSQL 16 container, applies the schema and
// seeds one tenant.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "cfd_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := postgres.PostgresConfig{
		Host: host, Port: port.Int(), Database: "cfd_test",
		Username: "test", Password: "test", SSLMode: "disable",
	}
	conn, err := postgres.NewConnection(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Migrate())

	_, err = conn.DB().ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES ('t-1', 'Acme')`)
	require.NoError(t, err)
	return conn
}

func TestJobLifecycle_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	jobs := repositories.NewPostgresJobRepo(conn, logging.NewNopLogger())
	now := time.Now().UTC().Truncate(time.Millisecond)

	job, err := scan.NewScanJob("t-1", "u-1", scan.ScanTypeLocal, "s3://scans/a.jpg", now)
	require.NoError(t, err)
	require.NoError(t, jobs.Create(ctx, job))

	pending, err := jobs.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Two concurrent claims: exactly one wins.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		claimed int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := jobs.Claim(ctx, job.ID, now)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.IsCode(err, errors.ErrCodeScanAlreadyClaimed) {
				claimed++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, claimed)

	n, err := jobs.FailStale(ctx, now.Add(time.Minute), "worker lost", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = jobs.MarkCompleted(ctx, job.ID, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScanJobInvalidState))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.JobFailed, got.Status)
	assert.Equal(t, "worker lost", got.ErrorMessage)
}

func TestHistoryRoundTrip_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	jobs := repositories.NewPostgresJobRepo(conn, logging.NewNopLogger())
	history := repositories.NewPostgresHistoryRepo(conn, logging.NewNopLogger())
	now := time.Now().UTC().Truncate(time.Millisecond)

	job, err := scan.NewScanJob("t-1", "u-1", scan.ScanTypeAIVision, "s3://scans/b.jpg", now)
	require.NoError(t, err)
	require.NoError(t, jobs.Create(ctx, job))

	res, err := scan.NewEvaluationResult(scan.ModeMasterPlusCloud, []scan.Violation{
		scan.NewViolation(scan.ViolationSuspiciousText, 25, "replica", scan.TextEvidence{Match: "replica"}),
	}, nil, now)
	require.NoError(t, err)
	require.NoError(t, history.SaveResult(ctx, scan.NewScanRecord(job, res, scan.OriginProvider)))
	require.NoError(t, history.SetVerdict(ctx, job.ID, scan.VerdictFake, now))

	rec, err := history.GetByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, rec.Result.RiskScore)
	assert.Equal(t, scan.TextEvidence{Match: "replica"}, rec.Result.Violations[0].Evidence)
	require.NotNil(t, rec.Verdict)
	assert.Equal(t, scan.VerdictFake, *rec.Verdict)
}

func TestHistoryListForProduct_SkipsFailedJobs_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	jobs := repositories.NewPostgresJobRepo(conn, logging.NewNopLogger())
	history := repositories.NewPostgresHistoryRepo(conn, logging.NewNopLogger())
	now := time.Now().UTC().Truncate(time.Millisecond)
	product := common.ID("prod-7")

	save := func(image string) *scan.ScanJob {
		job, err := scan.NewScanJob("t-1", "u-1", scan.ScanTypeLocal, image, now)
		require.NoError(t, err)
		job.ProductID = &product
		require.NoError(t, jobs.Create(ctx, job))
		_, err = jobs.Claim(ctx, job.ID, now)
		require.NoError(t, err)
		res, err := scan.NewEvaluationResult(scan.ModeMasterPlusCloud, nil, nil, now)
		require.NoError(t, err)
		require.NoError(t, history.SaveResult(ctx, scan.NewScanRecord(job, res, scan.OriginProvider)))
		return job
	}
	done := save("s3://scans/done.jpg")
	require.NoError(t, jobs.MarkCompleted(ctx, done.ID, now))
	lost := save("s3://scans/lost.jpg")
	_, err := jobs.FailStale(ctx, now.Add(time.Minute), "worker lost", now)
	require.NoError(t, err)

	recs, err := history.ListForProduct(ctx, "t-1", product, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, done.ID, recs[0].JobID)
	assert.NotEqual(t, lost.ID, recs[0].JobID)
}

func TestUsageIncrement_Concurrent_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	usage := repositories.NewPostgresUsageRepo(conn, logging.NewNopLogger())
	month := quota.MonthOf(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := usage.IncrementUsage(ctx, "t-1", month, quota.TierLocal)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := usage.GetOrCreateUsagePeriod(ctx, "t-1", month)
	require.NoError(t, err)
	assert.Equal(t, 20, u.LocalUsed)
	assert.Equal(t, 0, u.HighUsed)
}

//Personal.AI order the ending
