package pathwise

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// subjectStore implements SubjectStore on top of the repository manager.
type subjectStore struct {
	repo RepositoryManager
	db   *bun.DB
}

var _ SubjectStore = (*subjectStore)(nil)

// NewSubjectStore builds the persistence surface for the GDPR workflow.
func NewSubjectStore(repo RepositoryManager) SubjectStore {
	return &subjectStore{repo: repo, db: repo.DB()}
}

func (s *subjectStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.Users().GetByEmail(ctx, email)
}

func (s *subjectStore) ProfileByUser(ctx context.Context, userID uuid.UUID) (*StudentProfile, error) {
	record := &StudentProfile{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (s *subjectStore) ApplicationsByUser(ctx context.Context, userID uuid.UUID) ([]*Application, error) {
	records := []*Application{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) ConsultationsByUser(ctx context.Context, userID uuid.UUID) ([]*Consultation, error) {
	records := []*Consultation{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.student_id = ? OR ?TableAlias.consultant_id = ?", userID, userID).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) MessagesSentByUser(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	records := []*Message{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.sender_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) MessagesReceivedByUser(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	records := []*Message{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.recipient_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) ApplicantsByEmail(ctx context.Context, email string) ([]*Applicant, error) {
	records := []*Applicant{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.email = ?", email).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) ConsentsByEmail(ctx context.Context, email string) ([]*Consent, error) {
	records := []*Consent{}
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.email = ?", email).
		Order("created_at ASC").
		Scan(ctx)
	return records, err
}

func (s *subjectStore) CreateRequest(ctx context.Context, req *GDPRRequest) (*GDPRRequest, error) {
	return s.repo.GDPRRequests().Create(ctx, req)
}

func (s *subjectStore) CompleteRequest(ctx context.Context, id uuid.UUID, completedAt time.Time, result map[string]any) error {
	record := &GDPRRequest{
		ID:          id,
		Status:      GDPRStatusCompleted,
		CompletedAt: &completedAt,
		Result:      result,
	}

	_, err := s.repo.GDPRRequests().Update(ctx, record, repository.UpdateByID(id.String()))
	return err
}

// EraseSubject deletes the subject's records inside one transaction. The
// persistence layer declares no cascades, so the dependent-record order is
// enumerated explicitly: leaf tables first, the account last, then the
// email-keyed records that exist independently of any account.
func (s *subjectStore) EraseSubject(ctx context.Context, user *User, email string) error {
	return s.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if user != nil {
			if _, err := tx.NewDelete().
				Model((*Message)(nil)).
				Where("sender_id = ? OR recipient_id = ?", user.ID, user.ID).
				Exec(ctx); err != nil {
				return err
			}

			if _, err := tx.NewDelete().
				Model((*Consultation)(nil)).
				Where("student_id = ? OR consultant_id = ?", user.ID, user.ID).
				Exec(ctx); err != nil {
				return err
			}

			if _, err := tx.NewDelete().
				Model((*Application)(nil)).
				Where("user_id = ?", user.ID).
				Exec(ctx); err != nil {
				return err
			}

			if _, err := tx.NewDelete().
				Model((*StudentProfile)(nil)).
				Where("user_id = ?", user.ID).
				Exec(ctx); err != nil {
				return err
			}

			if _, err := tx.NewDelete().
				Model((*User)(nil)).
				Where("id = ?", user.ID).
				Exec(ctx); err != nil {
				return err
			}
		}

		if _, err := tx.NewDelete().
			Model((*Applicant)(nil)).
			Where("email = ?", email).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*Consent)(nil)).
			Where("email = ?", email).
			Exec(ctx); err != nil {
			return err
		}

		return nil
	})
}
