package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promofeed/internal/adapter/memstore"
	"promofeed/internal/adapter/usecase"
	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
	"promofeed/internal/rules"
)

type flakyStore struct {
	*memstore.Store
	calls  int
	failOn int // 1-based upsert call that fails, 0 disables
}

func (s *flakyStore) UpsertByFingerprint(ctx context.Context, c domain.Campaign, now time.Time) (domain.Campaign, bool, error) {
	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return domain.Campaign{}, false, errors.New("connection reset by peer")
	}
	return s.Store.UpsertByFingerprint(ctx, c, now)
}

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32            { return nil }
func (s *fakeSession) MemberID() string                      { return "test" }
func (s *fakeSession) GenerationID() int32                   { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context              { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "campaign-submissions" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func newTestConsumer(t *testing.T) (*SubmissionConsumer, *flakyStore) {
	t.Helper()
	policy := rules.Default()
	store := &flakyStore{Store: memstore.New()}
	idx := domain.NewSourceIndex([]domain.Source{
		{CanonicalName: "Akbank", Aliases: []string{"akbank"}},
	})
	gate := domain.NewQualityGate(policy.QualityWeights(), policy.Categories, policy.Denylist)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingest := usecase.NewIngestUseCase(store, gate, policy.Classifier(), usecase.NewSourceHolder(idx), policy.URLStripParams, nil, logger)
	return NewSubmissionConsumer(ingest, logger), store
}

func submissionMessage(offset int64, title string) *sarama.ConsumerMessage {
	payload, _ := json.Marshal(domain.Submission{
		SourceName:  "akbank",
		Title:       title,
		Description: "Axess ile seçili marketlerde tek seferde 500 TL harcamaya %20 indirim fırsatı.",
		TargetURL:   fmt.Sprintf("https://example.com/kampanya/%d", offset),
		Category:    "market",
		ValidUntil:  time.Now().AddDate(0, 1, 0),
	})
	return &sarama.ConsumerMessage{Offset: offset, Value: payload}
}

func TestConsumeClaimMarksProcessedMessages(t *testing.T) {
	consumer, store := newTestConsumer(t)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- submissionMessage(10, "Market alışverişine %20 indirim")
	claim.messages <- submissionMessage(11, "Akaryakıtta 200 TL puan")
	close(claim.messages)

	require.NoError(t, consumer.ConsumeClaim(session, claim))
	assert.Equal(t, []int64{10, 11}, session.marked)

	campaigns, err := store.ListCampaigns(context.Background(), port.CampaignFilter{})
	require.NoError(t, err)
	assert.Len(t, campaigns, 2)
}

func TestConsumeClaimStoreFailureEndsSession(t *testing.T) {
	consumer, store := newTestConsumer(t)
	store.failOn = 2
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- submissionMessage(10, "Market alışverişine %20 indirim")
	claim.messages <- submissionMessage(11, "Akaryakıtta 200 TL puan")
	claim.messages <- submissionMessage(12, "Sinema biletinde %50 indirim")
	close(claim.messages)

	require.Error(t, consumer.ConsumeClaim(session, claim))

	// Nothing at or past the failed offset is marked; commits are
	// high-watermark, so marking a later offset would lose the failed
	// message for good.
	assert.Equal(t, []int64{10}, session.marked)
}

func TestConsumeClaimDropsUnfixableMessages(t *testing.T) {
	consumer, store := newTestConsumer(t)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}

	claim.messages <- &sarama.ConsumerMessage{Offset: 5, Value: []byte("{not json")}
	lowQuality, _ := json.Marshal(domain.Submission{
		SourceName: "akbank",
		Title:      "abc",
		TargetURL:  "https://example.com/x",
		Category:   "bilinmeyen",
	})
	claim.messages <- &sarama.ConsumerMessage{Offset: 6, Value: lowQuality}
	close(claim.messages)

	require.NoError(t, consumer.ConsumeClaim(session, claim))
	assert.Equal(t, []int64{5, 6}, session.marked, "unfixable messages are consumed, not redelivered")

	campaigns, err := store.ListCampaigns(context.Background(), port.CampaignFilter{})
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}
