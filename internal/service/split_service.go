package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitchat/internal/chat"
	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/ingest"
	"github.com/mmynk/splitchat/internal/metrics"
	"github.com/mmynk/splitchat/internal/middleware"
	"github.com/mmynk/splitchat/internal/session"
	"github.com/mmynk/splitchat/internal/storage"
	"github.com/mmynk/splitchat/pkg/api"
	"github.com/mmynk/splitchat/pkg/api/apiconnect"
)

// DefaultTimeout bounds collaborator work started by one RPC.
const DefaultTimeout = 2 * time.Minute

// SplitService implements the Connect SplitService
type SplitService struct {
	apiconnect.UnimplementedSplitServiceHandler
	store   storage.SessionStore
	chat    *chat.Orchestrator
	rates   currency.RateProvider
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewSplitService creates a new SplitService backed by the given session store.
// rates is handed to every new session's converter; m may be nil.
func NewSplitService(store storage.SessionStore, orch *chat.Orchestrator, rates currency.RateProvider, m *metrics.Metrics) *SplitService {
	return &SplitService{
		store:   store,
		chat:    orch,
		rates:   rates,
		metrics: m,
		timeout: DefaultTimeout,
	}
}

// WithTimeout overrides DefaultTimeout.
func (s *SplitService) WithTimeout(d time.Duration) *SplitService {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// CreateSession starts a new session in the upload state.
func (s *SplitService) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess := session.New(uuid.New().String(), s.rates)
	if err := s.store.Create(ctx, sess); err != nil {
		slog.Error("CreateSession failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.metrics.SetSessions(s.store.Len())
	slog.Info("Session created", "session_id", sess.ID, "request_id", middleware.GetRequestID(ctx))
	return respond(sess), nil
}

// GetSession returns the current view of a session.
func (s *SplitService) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return respond(sess), nil
}

// SubmitReceipt decodes the uploaded pages and parses them as a new receipt.
func (s *SplitService) SubmitReceipt(ctx context.Context, req *connect.Request[api.SubmitReceiptRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	uploads := make([]ingest.Upload, len(req.Msg.Pages))
	for i, p := range req.Msg.Pages {
		uploads[i] = ingest.Upload{
			Name:        p.Name,
			Base64:      p.Data,
			ContentType: p.ContentType,
		}
	}
	slog.Debug("Receipt submitted", "session_id", sess.ID, "pages", len(uploads))

	return s.run(ctx, sess, func(ctx context.Context) error {
		return s.chat.SubmitFiles(ctx, sess, uploads)
	})
}

// SendMessage runs a chat command against the session's receipt.
func (s *SplitService) SendMessage(ctx context.Context, req *connect.Request[api.SendMessageRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sess, func(ctx context.Context) error {
		return s.chat.SendText(ctx, sess, req.Msg.Text)
	})
}

// DropItem assigns an item to a person from a drag and drop gesture.
func (s *SplitService) DropItem(ctx context.Context, req *connect.Request[api.DropItemRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sess, func(ctx context.Context) error {
		return s.chat.DropItemOnPerson(ctx, sess, req.Msg.ItemName, req.Msg.Person)
	})
}

// SetCurrency changes the session's display currency.
func (s *SplitService) SetCurrency(ctx context.Context, req *connect.Request[api.SetCurrencyRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sess, func(ctx context.Context) error {
		return s.chat.SetDisplayCurrency(ctx, sess, req.Msg.Currency)
	})
}

func (s *SplitService) session(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return sess, nil
}

// run executes op detached from the caller's cancellation, so a dropped
// connection does not turn into a spurious failure in the transcript.
func (s *SplitService) run(ctx context.Context, sess *session.Session, op func(context.Context) error) (*connect.Response[api.SessionResponse], error) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := op(opCtx); err != nil {
		slog.Warn("Request rejected",
			"session_id", sess.ID,
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		return nil, toConnectError(err)
	}
	return respond(sess), nil
}

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, session.ErrBusy):
		code = connect.CodeResourceExhausted
	case errors.Is(err, session.ErrNoReceipt), errors.Is(err, session.ErrInvalidTransition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, ingest.ErrNoPages), errors.Is(err, currency.ErrInvalidCode):
		code = connect.CodeInvalidArgument
	}
	return connect.NewError(code, err)
}

func respond(sess *session.Session) *connect.Response[api.SessionResponse] {
	return connect.NewResponse(&api.SessionResponse{Session: toView(sess.Snapshot())})
}

// toView converts a snapshot to its wire form.
func toView(snap session.Snapshot) *api.SessionView {
	view := &api.SessionView{
		ID:               snap.ID,
		State:            snap.State.String(),
		Busy:             snap.Busy,
		People:           make([]api.PersonSplit, len(snap.Split.Summaries)),
		Unclaimed:        snap.Split.Unclaimed,
		UnclaimedDisplay: snap.Format(snap.Split.Unclaimed),
		DisplayCurrency:  snap.DisplayCurrency,
		Rate:             snap.Rate,
		CurrencyOptions:  snap.Options,
		Transcript:       make([]api.Message, len(snap.Transcript)),
	}

	if r := snap.Receipt; r != nil {
		items := make([]api.Item, len(r.Items))
		for i, it := range r.Items {
			items[i] = api.Item{
				ID:           it.ID,
				Name:         it.Name,
				Price:        it.Price,
				PriceDisplay: snap.Format(it.Price),
				Assignees:    it.Assignees,
			}
		}
		view.Receipt = &api.Receipt{
			Items:        items,
			Subtotal:     r.Subtotal,
			Tax:          r.Tax,
			Tip:          r.Tip,
			Total:        r.Total,
			Currency:     r.Currency,
			TotalDisplay: snap.Format(r.Total),
		}
	}

	for i, p := range snap.Split.Summaries {
		view.People[i] = api.PersonSplit{
			Name:         p.Name,
			Subtotal:     p.Subtotal,
			Tax:          p.TaxShare,
			Tip:          p.TipShare,
			Total:        p.Total,
			TotalDisplay: snap.Format(p.Total),
			Items:        p.Items,
		}
	}

	for i, m := range snap.Transcript {
		view.Transcript[i] = api.Message{
			ID:        m.ID,
			Role:      string(m.Role),
			Text:      m.Text,
			Timestamp: m.Timestamp.Unix(),
		}
	}
	return view
}
