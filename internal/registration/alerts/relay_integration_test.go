//go:build integration

package alerts_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"regverify/internal/platform/config"
	"regverify/internal/platform/kafka"
	"regverify/internal/registration/alerts"
	"regverify/internal/registration/domain"
	"regverify/internal/registration/models"
	"regverify/internal/registration/queue"
	"regverify/internal/registration/store"
	"regverify/pkg/testutil/containers"
)

func TestRelayPublishesToBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	mgr := containers.GetManager()
	pg := mgr.GetPostgres(t)
	rp := mgr.GetRedpanda(t)
	require.NoError(t, pg.TruncateTables(ctx, "compliance_alerts", "registrations"))

	cfg := config.KafkaConfig{
		Brokers:  []string{rp.Broker},
		Topic:    "regverify.alerts.it",
		ClientID: "regverify-it",
	}
	producer, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	t.Cleanup(producer.Close)
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))

	st := store.NewPostgresStore(pg.DB)
	q := queue.New(st)
	res, err := q.Enqueue(ctx, queue.Claim{
		Key:      models.NewKey("TN/01/BUILDING/0001/2020", domain.JurisdictionTamilNadu),
		Category: domain.CategoryBuilder,
		Reason:   "partner registry unavailable",
	})
	require.NoError(t, err)
	require.True(t, res.AlertRaised)

	n, err := alerts.NewRelay(st, producer).RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	pollCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	var records []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { records = append(records, r) })
	require.Len(t, records, 1)
	require.Equal(t, res.Record.ID.String(), string(records[0].Key))

	var alert models.ComplianceAlert
	require.NoError(t, json.Unmarshal(records[0].Value, &alert))
	require.Equal(t, res.Record.ID, alert.RegistrationID)

	remaining, err := st.ListUnpublishedAlerts(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
