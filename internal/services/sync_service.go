package services

import (
	"context"
	"errors"
	"time"

	apperrors "spendsync/internal/errors"
	"spendsync/internal/lock"
	"spendsync/internal/logger"
	"spendsync/internal/mail"
	"spendsync/internal/models"
	"spendsync/internal/parser"
)

// Sync states. Every transition is logged.
const (
	StateIdle          = "idle"
	StateFetching      = "fetching"
	StateParsing       = "parsing"
	StateDeduplicating = "deduplicating"
	StatePersisting    = "persisting"
	StateNotifying     = "notifying"
	StateFailed        = "failed"
)

// Sync triggers recorded on each run.
const (
	TriggerMailbox   = "mailbox"
	TriggerEmails    = "emails"
	TriggerReconcile = "reconcile"
)

// Skip reasons added by the sync engine on top of the parser's.
const (
	SkipDuplicateMessage parser.SkipReason = "duplicate_message"
	SkipNoMessageID      parser.SkipReason = "no_message_id"
)

// SyncDeps are the collaborators of the sync engine. Notifier and Runs may
// be nil.
type SyncDeps struct {
	Transactions TransactionServicer
	Settings     SettingsServicer
	Mail         MailConnectionServicer
	Mailbox      mail.Factory
	Registry     *parser.Registry
	Locker       lock.Locker
	Notifier     Notifier
	Runs         SyncRunServicer
}

// syncService runs the fetch, parse, deduplicate, persist and notify pipeline.
type syncService struct {
	deps SyncDeps
	now  func() time.Time
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(deps SyncDeps) SyncServicer {
	if deps.Registry == nil {
		deps.Registry = parser.DefaultRegistry()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewMemoryLocker()
	}
	return &syncService{deps: deps, now: time.Now}
}

// syncRun tracks the state of one call for logging and history.
type syncRun struct {
	userID  string
	trigger string
	state   string
	started time.Time
}

func (r *syncRun) enter(state string) {
	r.state = state
	logger.Get().Infow("sync state", "user_id", r.userID, "trigger", r.trigger, "state", state)
}

// Sync fetches the user's recent notification emails and reconciles them.
func (s *syncService) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	run := s.begin(userID, TriggerMailbox)
	result, err := s.syncMailbox(ctx, run)
	if err == nil {
		if markErr := s.deps.Mail.MarkSynced(userID, s.now()); markErr != nil {
			logger.Get().Warnw("failed to record last sync time", "user_id", userID, "error", markErr)
		}
	}
	return s.finish(run, result, err)
}

func (s *syncService) syncMailbox(ctx context.Context, run *syncRun) (*SyncResult, error) {
	// A missing connection fails before anything is fetched.
	token, err := s.deps.Mail.AccessToken(run.userID)
	if err != nil {
		return nil, err
	}

	existing, settings, err := s.loadState(ctx, run.userID)
	if err != nil {
		return nil, err
	}

	run.enter(StateFetching)
	if s.deps.Mailbox == nil {
		return nil, apperrors.ErrMailNotConfigured
	}
	fetcher, err := s.deps.Mailbox.ForToken(ctx, token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMailFetchFailed, err)
	}
	emails, err := fetcher.FetchTransactionEmails(ctx, settings.TransactionEmail)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(apperrors.ErrSyncCancelled, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrMailFetchFailed, err)
	}

	return s.reconcile(ctx, run, existing, emails, settings.NotificationsEnabled)
}

// SyncEmails reconciles emails the caller already fetched.
func (s *syncService) SyncEmails(ctx context.Context, userID string, emails []parser.RawEmail) (*SyncResult, error) {
	release, err := s.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	run := s.begin(userID, TriggerEmails)
	result, err := func() (*SyncResult, error) {
		existing, settings, err := s.loadState(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.reconcile(ctx, run, existing, emails, settings.NotificationsEnabled)
	}()
	return s.finish(run, result, err)
}

// Reconcile parses emails, upserts every parsed transaction and notifies
// about the ones whose message id was not previously stored.
func (s *syncService) Reconcile(ctx context.Context, userID string, existing MessageIDSet, emails []parser.RawEmail, notify bool) (*SyncResult, error) {
	run := s.begin(userID, TriggerReconcile)
	result, err := s.reconcile(ctx, run, existing, emails, notify)
	return s.finish(run, result, err)
}

func (s *syncService) reconcile(ctx context.Context, run *syncRun, existing MessageIDSet, emails []parser.RawEmail, notify bool) (*SyncResult, error) {
	result := &SyncResult{
		Fetched:         len(emails),
		SkippedByReason: map[parser.SkipReason]int{},
	}
	skip := func(reason parser.SkipReason) {
		result.Skipped++
		result.SkippedByReason[reason]++
	}

	run.enter(StateParsing)
	rows := make([]models.Transaction, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		parsed := s.deps.Registry.Dispatch(email)
		if !parsed.OK() {
			skip(parsed.Skip)
			continue
		}

		tx := parsed.Transaction
		if !tx.Amount.IsPositive() {
			skip(parser.SkipZeroAmount)
			continue
		}
		if tx.MessageID == "" {
			tx.MessageID = email.ID
		}
		if tx.MessageID == "" {
			skip(SkipNoMessageID)
			continue
		}
		if _, dup := seen[tx.MessageID]; dup {
			skip(SkipDuplicateMessage)
			continue
		}
		seen[tx.MessageID] = struct{}{}

		row := models.FromParsed(run.userID, tx)
		row.SenderAddress = email.From
		row.RecipientAddress = email.To
		rows = append(rows, row)
	}
	result.Imported = len(rows)

	run.enter(StateDeduplicating)
	candidates := 0
	for _, row := range rows {
		if !existing.Has(*row.MessageID) {
			candidates++
		}
	}
	logger.Get().Debugw("deduplicated parsed transactions",
		"user_id", run.userID,
		"parsed", len(rows),
		"candidates", candidates,
	)

	if len(rows) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncCancelled, err)
	}

	// Once started, persisting runs to completion.
	run.enter(StatePersisting)
	persistCtx := context.WithoutCancel(ctx)
	upserted, err := s.deps.Transactions.UpsertParsed(persistCtx, run.userID, rows)
	if err != nil {
		return nil, err
	}

	fresh := make([]models.Transaction, 0, len(upserted.Inserted))
	for _, row := range upserted.Inserted {
		if !existing.Has(*row.MessageID) {
			fresh = append(fresh, row)
		}
	}
	result.New = len(fresh)

	if notify && s.deps.Notifier != nil && len(fresh) > 0 {
		run.enter(StateNotifying)
		for _, row := range fresh {
			if err := s.deps.Notifier.Schedule(persistCtx, NotificationFor(run.userID, row)); err != nil {
				logger.Get().Warnw("failed to schedule transaction notification",
					"user_id", run.userID,
					"transaction_id", row.ID,
					"error", err,
				)
			}
		}
	}
	return result, nil
}

func (s *syncService) acquire(ctx context.Context, userID string) (func(), error) {
	release, err := s.deps.Locker.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, apperrors.ErrSyncInProgress
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return release, nil
}

func (s *syncService) loadState(ctx context.Context, userID string) (MessageIDSet, *models.UserSettings, error) {
	existing, err := s.deps.Transactions.ExistingMessageIDs(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	settings, err := s.deps.Settings.GetSettings(userID)
	if err != nil {
		return nil, nil, err
	}
	return existing, settings, nil
}

func (s *syncService) begin(userID, trigger string) *syncRun {
	run := &syncRun{userID: userID, trigger: trigger, state: StateIdle, started: s.now()}
	logger.Get().Infow("sync started", "user_id", userID, "trigger", trigger)
	return run
}

// finish logs the outcome and records it in the sync history.
func (s *syncService) finish(run *syncRun, result *SyncResult, err error) (*SyncResult, error) {
	record := &models.SyncRun{
		UserID:     run.userID,
		Trigger:    run.trigger,
		StartedAt:  run.started,
		FinishedAt: s.now(),
	}

	if err != nil {
		record.Status = models.SyncFailed
		record.FailedIn = run.state
		if appErr, ok := apperrors.As(err); ok {
			record.ErrorCode = appErr.Code
		}
		logger.Get().Warnw("sync failed",
			"user_id", run.userID,
			"trigger", run.trigger,
			"state", StateFailed,
			"failed_in", run.state,
			"error", err,
		)
	} else {
		record.Status = models.SyncSucceeded
		record.Fetched = result.Fetched
		record.Imported = result.Imported
		record.New = result.New
		record.Skipped = result.Skipped
		run.enter(StateIdle)
		logger.Get().Infow("sync finished",
			"user_id", run.userID,
			"trigger", run.trigger,
			"fetched", result.Fetched,
			"imported", result.Imported,
			"new", result.New,
			"skipped", result.Skipped,
		)
	}

	if s.deps.Runs != nil {
		s.deps.Runs.Record(record)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
