package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iamwavecut/pquota/internal/observability"
	"github.com/iamwavecut/pquota/internal/quota"
)

const compactionInterval = time.Hour

// Event is one inbound text message as seen by the pipeline.
type Event struct {
	CommunityID       int64
	ChannelID         int64
	UserID            int64
	MessageID         int
	IsAutomatedAuthor bool
	HasImageOrSticker bool
	Text              string
}

// MessageHandle addresses a message for deletion.
type MessageHandle struct {
	ChatID    int64
	MessageID int
}

// Deleter removes a message from the chat. Errors wrap errors.ErrTransport.
type Deleter interface {
	DeleteMessage(ctx context.Context, handle MessageHandle) error
}

type Outcome string

const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeUnrestricted Outcome = "unrestricted"
	OutcomeExempt       Outcome = "exempt"
	OutcomeAllowed      Outcome = "allowed"
	OutcomeDeleteFailed Outcome = "delete_failed"
	OutcomeDeleted      Outcome = "deleted"
	OutcomeAuditFailed  Outcome = "audit_failed"
)

type restrictionChecker interface {
	IsRestricted(communityID, channelID int64) bool
}

type quotaCounter interface {
	RecordAndCheck(key quota.Key) quota.Decision
	Compact(today string) int
	Len() int
}

type auditAppender interface {
	Append(ctx context.Context, ts, communityID, channelID, userID int64, excerpt string) error
}

type Pipeline struct {
	registry restrictionChecker
	counter  quotaCounter
	audit    auditAppender
	deleter  Deleter
	now      func() time.Time

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewPipeline(registry restrictionChecker, counter quotaCounter, audit auditAppender, deleter Deleter) *Pipeline {
	return &Pipeline{
		registry: registry,
		counter:  counter,
		audit:    audit,
		deleter:  deleter,
		now:      time.Now,
	}
}

// Handle evaluates one message. The returned error is only set for audit failures
// after a successful deletion; transport failures end in OutcomeDeleteFailed.
func (p *Pipeline) Handle(ctx context.Context, ev Event) (outcome Outcome, err error) {
	ctx, span := otel.Tracer("moderation").Start(ctx, "handle-message")
	defer span.End()

	done := observability.StartEventProcessing()
	defer func() {
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		observability.RecordEvent(string(outcome))
		done(string(outcome))
	}()

	if ev.IsAutomatedAuthor || ev.CommunityID == 0 {
		return OutcomeIgnored, nil
	}
	if !p.registry.IsRestricted(ev.CommunityID, ev.ChannelID) {
		return OutcomeUnrestricted, nil
	}
	if ev.HasImageOrSticker {
		return OutcomeExempt, nil
	}

	now := p.now()
	key := quota.Key{
		CommunityID: ev.CommunityID,
		ChannelID:   ev.ChannelID,
		UserID:      ev.UserID,
		Date:        now.Format(quota.DateLayout),
	}
	if p.counter.RecordAndCheck(key) == quota.Allow {
		return OutcomeAllowed, nil
	}

	entry := p.getLogEntry().WithFields(log.Fields{
		"method":     "Handle",
		"chat_id":    ev.CommunityID,
		"channel_id": ev.ChannelID,
		"user_id":    ev.UserID,
		"message_id": ev.MessageID,
	})

	if err := p.deleter.DeleteMessage(ctx, MessageHandle{ChatID: ev.CommunityID, MessageID: ev.MessageID}); err != nil {
		entry.WithError(err).Debug("delete failed, dropping event")
		return OutcomeDeleteFailed, nil
	}

	if err := p.audit.Append(ctx, p.now().UTC().Unix(), ev.CommunityID, ev.ChannelID, ev.UserID, BuildExcerpt(ev.Text)); err != nil {
		entry.WithError(err).Error("message deleted but audit entry was not written")
		return OutcomeAuditFailed, err
	}

	entry.Info("over-quota message deleted")
	return OutcomeDeleted, nil
}

// BuildExcerpt flattens message text into a single trimmed line.
func BuildExcerpt(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "\r", " ")
}

// Start runs the periodic compaction of stale quota buckets.
func (p *Pipeline) Start(ctx context.Context) error {
	p.runMutex.Lock()
	defer p.runMutex.Unlock()
	if p.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.runCancel = cancel

	p.workersWg.Add(1)
	go func() {
		defer p.workersWg.Done()
		ticker := time.NewTicker(compactionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.Compact()
			}
		}
	}()

	p.started = true
	return nil
}

func (p *Pipeline) Stop(ctx context.Context) error {
	p.runMutex.Lock()
	if !p.started {
		p.runMutex.Unlock()
		return nil
	}
	p.started = false
	cancel := p.runCancel
	p.runMutex.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.workersWg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Compact drops quota buckets of past days.
func (p *Pipeline) Compact() int {
	removed := p.counter.Compact(p.now().Format(quota.DateLayout))
	observability.SetQuotaBuckets(p.counter.Len())
	if removed > 0 {
		p.getLogEntry().WithField("removed", removed).Debug("compacted quota buckets")
	}
	return removed
}

func (p *Pipeline) getLogEntry() *log.Entry {
	return log.WithField("object", "Pipeline")
}
