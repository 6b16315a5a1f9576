// Package chat sequences user requests against a session: receipt
// submissions, chat commands, drag-drop gestures and display currency changes.
//
// Every mutation goes through the session's single-flight guard. Collaborator
// failures never surface as errors; they are reported in the transcript and
// leave the session in a recoverable state.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/splitchat/internal/assign"
	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/ingest"
	"github.com/mmynk/splitchat/internal/metrics"
	"github.com/mmynk/splitchat/internal/models"
	"github.com/mmynk/splitchat/internal/session"
)

// ErrEmptyMessage is returned for blank chat text or drop gestures.
var ErrEmptyMessage = errors.New("message is empty")

// defaultConfirmation is used when the interpreter returns no message.
const defaultConfirmation = "Okay, I've updated the bill."

// Orchestrator applies user requests to sessions.
type Orchestrator struct {
	parser      ingest.ReceiptParser
	interpreter assign.Interpreter
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates an orchestrator. m and logger may be nil.
func New(parser ingest.ReceiptParser, interpreter assign.Interpreter, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		parser:      parser,
		interpreter: interpreter,
		metrics:     m,
		logger:      logger,
	}
}

// SubmitFiles ingests a new receipt from one or more pages.
// A submission supersedes any outstanding request on the session. Decode and
// parse failures return the session to StateUpload with an apology in the
// transcript and are not returned as errors.
func (o *Orchestrator) SubmitFiles(ctx context.Context, s *session.Session, uploads []ingest.Upload) error {
	const op = "submit"
	if len(uploads) == 0 {
		o.metrics.Request(op, metrics.OutcomeRejected)
		return ingest.ErrNoPages
	}
	log := o.logger.With("session_id", s.ID, "op", op)

	ticket, rctx, preempted := s.Flight().Preempt(ctx)
	if preempted {
		log.Info("Superseding outstanding request")
	}
	if err := s.StartSubmission(); err != nil {
		s.Flight().Finish(ticket, nil)
		return err
	}
	s.Append(models.RoleAssistant, session.MsgScanning)

	pages, err := ingest.DecodeAll(rctx, uploads)
	if err != nil {
		log.Warn("Failed to read upload", "pages", len(uploads), "error", err)
		o.failSubmission(s, ticket, log)
		return nil
	}

	start := time.Now()
	receipt, err := o.parser.Parse(rctx, pages)
	o.metrics.Observe("parser", start)
	if err == nil {
		err = ingest.Normalize(receipt)
	}
	if err != nil {
		log.Warn("Failed to parse receipt", "pages", len(pages), "error", err)
		o.failSubmission(s, ticket, log)
		return nil
	}

	applied := s.Flight().Finish(ticket, func() {
		if err := s.StoreReceipt(receipt); err != nil {
			log.Error("Failed to store receipt", "error", err)
			return
		}
		s.Append(models.RoleAssistant, session.MsgReceiptReady)
	})
	if !applied {
		log.Info("Discarded stale receipt")
		o.metrics.Request(op, metrics.OutcomeStale)
		return nil
	}

	log.Info("Receipt ingested",
		"items", len(receipt.Items),
		"currency", receipt.Currency,
		"total", receipt.Total,
	)
	o.metrics.Request(op, metrics.OutcomeOK)
	return nil
}

func (o *Orchestrator) failSubmission(s *session.Session, ticket session.Ticket, log *slog.Logger) {
	applied := s.Flight().Finish(ticket, func() {
		if err := s.FailSubmission(); err != nil {
			log.Error("Failed to revert submission", "error", err)
		}
		s.Append(models.RoleAssistant, session.MsgParseFailed)
	})
	if !applied {
		o.metrics.Request("submit", metrics.OutcomeStale)
		return
	}
	o.metrics.Request("submit", metrics.OutcomeFailed)
}

// SendText runs a free-text chat command through the interpreter.
// The user's text is recorded verbatim. On success the receipt items are
// replaced in one step and the interpreter's confirmation is recorded; on
// failure the items are untouched and one apology is recorded.
func (o *Orchestrator) SendText(ctx context.Context, s *session.Session, text string) error {
	const op = "chat"
	if strings.TrimSpace(text) == "" {
		o.metrics.Request(op, metrics.OutcomeRejected)
		return ErrEmptyMessage
	}
	log := o.logger.With("session_id", s.ID, "op", op)

	ticket, rctx, err := s.Flight().Begin(ctx)
	if err != nil {
		o.metrics.Request(op, metrics.OutcomeRejected)
		return err
	}
	items, err := s.Items()
	if err != nil {
		s.Flight().Finish(ticket, nil)
		o.metrics.Request(op, metrics.OutcomeRejected)
		return err
	}
	s.Append(models.RoleUser, text)

	start := time.Now()
	res, err := o.interpreter.Interpret(rctx, items, text)
	o.metrics.Observe("interpreter", start)

	var updated []models.Item
	if err == nil {
		updated, err = assign.Apply(items, assign.Replace{Items: res.Items})
		if err != nil {
			err = &assign.InterpretError{Text: text, Err: err}
		}
	}

	if err != nil {
		log.Warn("Failed to update assignments", "text", text, "error", err)
		applied := s.Flight().Finish(ticket, func() {
			s.Append(models.RoleAssistant, session.MsgUpdateFailed)
		})
		o.finish(op, applied, metrics.OutcomeFailed)
		return nil
	}

	msg := strings.TrimSpace(res.Message)
	if msg == "" {
		msg = defaultConfirmation
	}
	applied := s.Flight().Finish(ticket, func() {
		if err := s.ReplaceItems(updated); err != nil {
			log.Error("Failed to replace items", "error", err)
			return
		}
		s.Append(models.RoleAssistant, msg)
	})
	if applied {
		log.Debug("Assignments updated", "text", text)
	}
	o.finish(op, applied, metrics.OutcomeOK)
	return nil
}

// DropItemOnPerson handles a drag of an item onto a person by normalizing it
// into the equivalent chat command.
func (o *Orchestrator) DropItemOnPerson(ctx context.Context, s *session.Session, itemName, person string) error {
	if strings.TrimSpace(itemName) == "" || strings.TrimSpace(person) == "" {
		return ErrEmptyMessage
	}
	return o.SendText(ctx, s, assign.DropCommand(itemName, person))
}

// SetDisplayCurrency changes the currency totals are rendered in.
// If no rate can be fetched, the previous currency and rate stay in effect and
// the transcript explains why.
func (o *Orchestrator) SetDisplayCurrency(ctx context.Context, s *session.Session, code string) error {
	const op = "currency"
	log := o.logger.With("session_id", s.ID, "op", op)

	ticket, rctx, err := s.Flight().Begin(ctx)
	if err != nil {
		o.metrics.Request(op, metrics.OutcomeRejected)
		return err
	}

	conv := s.Converter()
	previous := conv.Display()

	// Blank and native codes never reach the provider.
	fetch := strings.TrimSpace(code) != "" && currency.Normalize(code) != conv.Native()
	start := time.Now()
	err = conv.SetDisplayCurrency(rctx, code)
	if fetch {
		o.metrics.Observe("rates", start)
	}

	if errors.Is(err, currency.ErrInvalidCode) {
		s.Flight().Finish(ticket, nil)
		o.metrics.Request(op, metrics.OutcomeRejected)
		return err
	}
	if err != nil {
		log.Warn("Failed to fetch exchange rate", "from", conv.Native(), "to", code, "error", err)
		applied := s.Flight().Finish(ticket, func() {
			s.Append(models.RoleAssistant, fmt.Sprintf(session.MsgRateFailedFmt, currency.Normalize(code), previous))
		})
		o.finish(op, applied, metrics.OutcomeFailed)
		return nil
	}

	applied := s.Flight().Finish(ticket, func() {
		if err := s.SetConverter(conv); err != nil {
			log.Warn("Discarded rate for replaced receipt", "error", err)
		}
	})
	if applied {
		log.Info("Display currency changed", "currency", conv.Display(), "rate", conv.Rate())
	}
	o.finish(op, applied, metrics.OutcomeOK)
	return nil
}

func (o *Orchestrator) finish(op string, applied bool, outcome string) {
	if !applied {
		o.logger.Info("Discarded stale response", "op", op)
		outcome = metrics.OutcomeStale
	}
	o.metrics.Request(op, outcome)
}
