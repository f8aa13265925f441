package pathwise

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// RegisterStudentMessage carries the registration payload. Role is not a
// field on purpose: self-registration always produces a student account.
type RegisterStudentMessage struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	TargetDegree  string `json:"target_degree"`
	TargetCountry string `json:"target_country"`
	IntakeYear    int    `json:"intake_year"`
	UseHashid     bool   `json:"-"`
}

func (e RegisterStudentMessage) Type() string { return "student.register" }

// RegisterStudentHandler creates the account and its student profile as one
// logical unit. If the profile insert fails the account insert rolls back
// with it.
type RegisterStudentHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewRegisterStudentHandler(repo RepositoryManager) *RegisterStudentHandler {
	return &RegisterStudentHandler{repo: repo, logger: defLogger{}}
}

func (h *RegisterStudentHandler) WithLogger(l Logger) *RegisterStudentHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterStudentHandler) Execute(ctx context.Context, event RegisterStudentMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during student registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterStudentHandler) execute(ctx context.Context, event RegisterStudentMessage) (*User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return nil, err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil && existing != nil {
			return ErrEmailTaken
		} else if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing email")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = phone
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Role = RoleStudent
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		// A racing registration for the same email slips past the pre-check;
		// the unique constraint rejects it here and the wrap below folds it
		// into the same conflict outcome.
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		profile := &StudentProfile{
			UserID:        user.ID,
			TargetDegree:  event.TargetDegree,
			TargetCountry: event.TargetCountry,
			IntakeYear:    event.IntakeYear,
		}

		if _, err = h.repo.Students().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create student profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "student registration transaction failed")
	}

	return user, nil
}

// normalizePhone validates and formats a phone number to E.164. Empty input
// is allowed; the field is optional.
func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithTextCode("INVALID_PHONE")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithTextCode("INVALID_PHONE")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
