package pathwise

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Exactly one account exists per email; the
// unique constraint is the only guard against concurrent duplicate
// registrations.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	EmailValidated bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DisplayName is the name shown in the dashboard and export bundles.
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// StudentProfile is the dependent record created alongside every student
// account during registration.
type StudentProfile struct {
	bun.BaseModel `bun:"table:student_profiles,alias:stp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	TargetDegree  string     `bun:"target_degree" json:"target_degree,omitempty"`
	TargetCountry string     `bun:"target_country" json:"target_country,omitempty"`
	IntakeYear    int        `bun:"intake_year" json:"intake_year,omitempty"`
	Notes         string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ApplicationStatus tracks where a university application sits.
type ApplicationStatus = string

const (
	ApplicationDraft     ApplicationStatus = "draft"
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// Application is a student's application to a university program.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:app"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID   `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	UniversityID  uuid.UUID   `bun:"university_id,notnull,type:uuid" json:"university_id,omitempty"`
	University    *University `bun:"rel:belongs-to,join:university_id=id" json:"university,omitempty"`
	Program       string      `bun:"program,notnull" json:"program,omitempty"`
	Status        string      `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Consultation is a scheduled session between a student and a consultant.
type Consultation struct {
	bun.BaseModel `bun:"table:consultations,alias:cns"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	StudentID     uuid.UUID  `bun:"student_id,notnull,type:uuid" json:"student_id,omitempty"`
	ConsultantID  uuid.UUID  `bun:"consultant_id,notnull,type:uuid" json:"consultant_id,omitempty"`
	ScheduledAt   *time.Time `bun:"scheduled_at" json:"scheduled_at,omitempty"`
	Topic         string     `bun:"topic" json:"topic,omitempty"`
	Notes         string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Message is a dashboard message between two accounts.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SenderID      uuid.UUID  `bun:"sender_id,notnull,type:uuid" json:"sender_id,omitempty"`
	RecipientID   uuid.UUID  `bun:"recipient_id,notnull,type:uuid" json:"recipient_id,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Applicant is an anonymous marketing-page inquiry. It is keyed by email,
// not by account, so GDPR flows must match it even when no account exists.
type Applicant struct {
	bun.BaseModel `bun:"table:applicants,alias:apl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	FullName      string     `bun:"full_name" json:"full_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Message       string     `bun:"message" json:"message,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Consent records a data-processing consent, keyed by email.
type Consent struct {
	bun.BaseModel `bun:"table:consents,alias:cst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	Granted       bool       `bun:"granted" json:"granted"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// University is a back-office managed catalog entry.
type University struct {
	bun.BaseModel `bun:"table:universities,alias:uni"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Country       string     `bun:"country" json:"country,omitempty"`
	Website       string     `bun:"website" json:"website,omitempty"`
	Active        bool       `bun:"active" json:"active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GDPRRequestType is the kind of data-subject request.
type GDPRRequestType = string

const (
	// GDPRAccess is a data-subject access (export) request.
	GDPRAccess GDPRRequestType = "access"
	// GDPRDeletion is a data-subject erasure request.
	GDPRDeletion GDPRRequestType = "deletion"
)

const (
	// GDPRStatusProcessing marks a request whose destructive work may still
	// be in flight. A crash mid-deletion leaves this trail behind.
	GDPRStatusProcessing = "processing"
	// GDPRStatusCompleted marks a finished request.
	GDPRStatusCompleted = "completed"
)

// GDPRRequest is the audit record of a data-subject request. Rows are
// created before any destructive work and are never deleted.
type GDPRRequest struct {
	bun.BaseModel     `bun:"table:gdpr_requests,alias:gdr"`
	ID                uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RequestType       string         `bun:"request_type,notnull" json:"request_type,omitempty"`
	Email             string         `bun:"email,notnull" json:"email,omitempty"`
	UserID            *uuid.UUID     `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	Status            string         `bun:"status,notnull" json:"status,omitempty"`
	VerificationToken string         `bun:"verification_token" json:"verification_token,omitempty"`
	Result            map[string]any `bun:"result,type:json" json:"result,omitempty"`
	CreatedAt         *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	CompletedAt       *time.Time     `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}

// MarkCompleted stamps the request as finished.
func (r *GDPRRequest) MarkCompleted(at time.Time, result map[string]any) {
	r.Status = GDPRStatusCompleted
	r.CompletedAt = &at
	if result != nil {
		r.Result = result
	}
}
