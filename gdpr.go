package pathwise

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DeleteConfirmationPhrase is the exact literal a deletion request must
// carry. Comparison is case sensitive.
const DeleteConfirmationPhrase = "DELETE"

// SubjectStore is the persistence surface the GDPR workflow needs. The
// repository layer implements it; tests swap in a fake.
type SubjectStore interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	ProfileByUser(ctx context.Context, userID uuid.UUID) (*StudentProfile, error)
	ApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]*Application, error)
	ConsultationsByUser(ctx context.Context, userID uuid.UUID) ([]*Consultation, error)
	MessagesSentByUser(ctx context.Context, userID uuid.UUID) ([]*Message, error)
	MessagesReceivedByUser(ctx context.Context, userID uuid.UUID) ([]*Message, error)
	ApplicantsByEmail(ctx context.Context, email string) ([]*Applicant, error)
	ConsentsByEmail(ctx context.Context, email string) ([]*Consent, error)

	CreateRequest(ctx context.Context, req *GDPRRequest) (*GDPRRequest, error)
	CompleteRequest(ctx context.Context, id uuid.UUID, completedAt time.Time, result map[string]any) error

	// EraseSubject removes every record belonging to the subject in one
	// transaction, in explicit dependency order. Audit rows survive.
	EraseSubject(ctx context.Context, user *User, email string) error
}

// ExportBundle is the JSON-serializable result of an access request.
// Account-derived fields stay nil/empty when no account matches the email;
// applicant and consent records are keyed by email and appear regardless.
type ExportBundle struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	Email            string          `json:"email"`
	Account          *User           `json:"account,omitempty"`
	Profile          *StudentProfile `json:"profile,omitempty"`
	Applications     []*Application  `json:"applications"`
	Consultations    []*Consultation `json:"consultations"`
	MessagesSent     []*Message      `json:"messages_sent"`
	MessagesReceived []*Message      `json:"messages_received"`
	Applicants       []*Applicant    `json:"applicants"`
	Consents         []*Consent      `json:"consents"`
}

// RecordCount tallies every record in the bundle for the audit summary.
func (b *ExportBundle) RecordCount() int {
	count := len(b.Applications) + len(b.Consultations) +
		len(b.MessagesSent) + len(b.MessagesReceived) +
		len(b.Applicants) + len(b.Consents)
	if b.Account != nil {
		count++
	}
	if b.Profile != nil {
		count++
	}
	return count
}

// normalize keeps every slice non-nil so the bundle serializes empty
// collections as [] rather than null.
func (b *ExportBundle) normalize() {
	if b.Applications == nil {
		b.Applications = []*Application{}
	}
	if b.Consultations == nil {
		b.Consultations = []*Consultation{}
	}
	if b.MessagesSent == nil {
		b.MessagesSent = []*Message{}
	}
	if b.MessagesReceived == nil {
		b.MessagesReceived = []*Message{}
	}
	if b.Applicants == nil {
		b.Applicants = []*Applicant{}
	}
	if b.Consents == nil {
		b.Consents = []*Consent{}
	}
}

// GDPRService implements the data-subject access and erasure workflows.
type GDPRService struct {
	store  SubjectStore
	logger Logger
	now    func() time.Time
}

func NewGDPRService(store SubjectStore) *GDPRService {
	return &GDPRService{
		store:  store,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *GDPRService) WithLogger(l Logger) *GDPRService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *GDPRService) WithClock(clock func() time.Time) *GDPRService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Export aggregates every record matching the email into a bundle and logs
// a completed access request. The queries are independent reads; no
// transaction is required. The workflow succeeds even when no account
// exists for the email.
func (s *GDPRService) Export(ctx context.Context, email string) (*ExportBundle, error) {
	bundle := &ExportBundle{
		GeneratedAt:      s.now(),
		Email:            email,
		Applications:     []*Application{},
		Consultations:    []*Consultation{},
		MessagesSent:     []*Message{},
		MessagesReceived: []*Message{},
		Applicants:       []*Applicant{},
		Consents:         []*Consent{},
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil && !goerrors.IsNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if user != nil {
		bundle.Account = user

		if err := s.collectAccountRecords(ctx, user.ID, bundle); err != nil {
			return nil, err
		}
	}

	if bundle.Applicants, err = s.store.ApplicantsByEmail(ctx, email); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect applicant records")
	}

	if bundle.Consents, err = s.store.ConsentsByEmail(ctx, email); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect consent records")
	}

	bundle.normalize()

	req := newGDPRRequest(GDPRAccess, email, user)
	completedAt := s.now()
	req.MarkCompleted(completedAt, map[string]any{"records": bundle.RecordCount()})

	if _, err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to log access request")
	}

	s.logger.Info("gdpr export completed for %s with %d records", email, bundle.RecordCount())

	return bundle, nil
}

// Delete erases every record belonging to the subject. The audit row is
// written with status Processing before any destructive work so a crash
// mid-deletion still leaves a trail. A missing account is not an error;
// "already deleted" completes successfully.
func (s *GDPRService) Delete(ctx context.Context, email, confirmation string) error {
	if confirmation != DeleteConfirmationPhrase {
		return ErrConfirmationMismatch
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil && !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	req := newGDPRRequest(GDPRDeletion, email, user)
	req, err = s.store.CreateRequest(ctx, req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to log deletion request")
	}

	if err := s.store.EraseSubject(ctx, user, email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to erase subject records")
	}

	deletedAt := s.now()
	result := map[string]any{
		"account_deleted": user != nil,
		"deleted_at":      deletedAt.UTC().Format(time.RFC3339),
	}

	if err := s.store.CompleteRequest(ctx, req.ID, deletedAt, result); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to complete deletion request")
	}

	s.logger.Info("gdpr deletion completed for %s account_deleted=%t", email, user != nil)

	return nil
}

func (s *GDPRService) collectAccountRecords(ctx context.Context, userID uuid.UUID, bundle *ExportBundle) error {
	var err error

	if bundle.Profile, err = s.store.ProfileByUser(ctx, userID); err != nil && !goerrors.IsNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect student profile")
	}

	if bundle.Applications, err = s.store.ApplicationsByUser(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect applications")
	}

	if bundle.Consultations, err = s.store.ConsultationsByUser(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect consultations")
	}

	if bundle.MessagesSent, err = s.store.MessagesSentByUser(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect sent messages")
	}

	if bundle.MessagesReceived, err = s.store.MessagesReceivedByUser(ctx, userID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to collect received messages")
	}

	return nil
}

func newGDPRRequest(requestType GDPRRequestType, email string, user *User) *GDPRRequest {
	req := &GDPRRequest{
		ID:                uuid.New(),
		RequestType:       requestType,
		Email:             email,
		Status:            GDPRStatusProcessing,
		VerificationToken: uuid.NewString(),
	}

	if user != nil {
		id := user.ID
		req.UserID = &id
	}

	return req
}
