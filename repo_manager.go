package pathwise

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Students() repository.Repository[*StudentProfile]
	Applications() repository.Repository[*Application]
	Consultations() repository.Repository[*Consultation]
	Messages() repository.Repository[*Message]
	Applicants() repository.Repository[*Applicant]
	Consents() repository.Repository[*Consent]
	Universities() Universities
	GDPRRequests() repository.Repository[*GDPRRequest]
}

type mngr struct {
	db            *bun.DB
	users         Users
	students      repository.Repository[*StudentProfile]
	applications  repository.Repository[*Application]
	consultations repository.Repository[*Consultation]
	messages      repository.Repository[*Message]
	applicants    repository.Repository[*Applicant]
	consents      repository.Repository[*Consent]
	universities  Universities
	gdprRequests  repository.Repository[*GDPRRequest]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		students:      newRepo(db, func(r *StudentProfile) *uuid.UUID { return &r.ID }),
		applications:  newRepo(db, func(r *Application) *uuid.UUID { return &r.ID }),
		consultations: newRepo(db, func(r *Consultation) *uuid.UUID { return &r.ID }),
		messages:      newRepo(db, func(r *Message) *uuid.UUID { return &r.ID }),
		applicants:    newRepo(db, func(r *Applicant) *uuid.UUID { return &r.ID }),
		consents:      newRepo(db, func(r *Consent) *uuid.UUID { return &r.ID }),
		universities:  NewUniversitiesRepository(db),
		gdprRequests:  newRepo(db, func(r *GDPRRequest) *uuid.UUID { return &r.ID }),
	}
}

// newRepo wires the generic repository handlers for any model exposing a
// uuid primary key through the accessor.
func newRepo[T any](db *bun.DB, id func(*T) *uuid.UUID) repository.Repository[*T] {
	handlers := repository.ModelHandlers[*T]{
		NewRecord: func() *T {
			return new(T)
		},
		GetID: func(record *T) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return *id(record)
		},
		SetID: func(record *T, v uuid.UUID) {
			if record != nil {
				*id(record) = v
			}
		},
	}
	return repository.NewRepository(db, handlers)
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.students == nil {
		return errors.New("repository students should be initialized")
	}

	if m.gdprRequests == nil {
		return errors.New("repository gdprRequests should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) DB() *bun.DB { return m.db }

func (m mngr) Users() Users { return m.users }

func (m mngr) Students() repository.Repository[*StudentProfile] { return m.students }

func (m mngr) Applications() repository.Repository[*Application] { return m.applications }

func (m mngr) Consultations() repository.Repository[*Consultation] { return m.consultations }

func (m mngr) Messages() repository.Repository[*Message] { return m.messages }

func (m mngr) Applicants() repository.Repository[*Applicant] { return m.applicants }

func (m mngr) Consents() repository.Repository[*Consent] { return m.consents }

func (m mngr) Universities() Universities { return m.universities }

func (m mngr) GDPRRequests() repository.Repository[*GDPRRequest] { return m.gdprRequests }
