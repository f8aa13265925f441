package pathwise

import (
	"fmt"
	"io"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"

	"github.com/pathwise-edu/pathwise/middleware/jwtware"
)

// APIController owns the HTTP surface: authentication, registration, GDPR
// workflows, the university catalog, and the admin asset upload.
type APIController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Config   Config
	GDPR     *GDPRService
	Uploader Uploader
}

type APIControllerOption func(*APIController) *APIController

func WithControllerLogger(l Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithRepository(repo RepositoryManager) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther Authenticator) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Auther = auther
		return c
	}
}

func WithConfig(cfg Config) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Config = cfg
		return c
	}
}

func WithGDPRService(svc *GDPRService) APIControllerOption {
	return func(c *APIController) *APIController {
		c.GDPR = svc
		return c
	}
}

func WithUploader(up Uploader) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Uploader = up
		return c
	}
}

func WithDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in api controller...")
	}

	if c.Config == nil {
		panic("Missing Config in api controller...")
	}

	return c
}

// tokenValidatorAdapter bridges the auth TokenService to the middleware's
// local validator interface.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Protected builds the JWT middleware for routes that need a session.
// minRole, when non-empty, also gates on the role hierarchy.
func (a *APIController) Protected(minRole UserRole) fiber.Handler {
	cfg := jwtware.Config{
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.Config.GetSigningKey()),
			JWTAlg: a.Config.GetSigningMethod(),
		},
		AuthScheme:     a.Config.GetAuthScheme(),
		ContextKey:     a.Config.GetContextKey(),
		TokenLookup:    a.Config.GetTokenLookup(),
		TokenValidator: tokenValidatorAdapter{ts: a.Auther.TokenService()},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if IsTokenExpiredError(err) {
				return RenderError(c, a.Logger, ErrTokenExpired)
			}
			if err.Error() == jwtware.ErrJWTMissingOrMalformed.Error() {
				return RenderError(c, a.Logger, ErrUnableToFindSession)
			}

			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return RenderError(c, a.Logger, richErr)
			}

			return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryAuthz, "access denied").
				WithCode(goerrors.CodeForbidden))
		},
	}

	if minRole != "" {
		cfg.MinimumRole = string(minRole)
	}

	return jwtware.New(cfg)
}

// RegisterRoutes wires every endpoint onto the app.
func (a *APIController) RegisterRoutes(app *fiber.App) {
	app.Post("/login", a.LoginPost).Name("sign-in.post")
	app.Post("/register", a.RegisterPost).Name("register.post")
	app.Post("/inquiries", a.InquiryPost).Name("inquiries.post")
	app.Get("/universities", a.UniversitiesGet).Name("universities.get")

	app.Post("/gdpr/export", a.GDPRExportPost).Name("gdpr-export.post")
	app.Post("/gdpr/delete", a.GDPRDeletePost).Name("gdpr-delete.post")

	app.Get("/me", a.Protected(""), a.MeGet).Name("me.get")

	admin := app.Group("/admin", a.Protected(RoleAdmin))
	admin.Get("/universities", a.AdminUniversitiesGet).Name("admin-universities.get")
	admin.Post("/upload", a.AdminUploadPost).Name("admin-upload.post")
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// UserResponse is the identity payload returned on login and /me.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func userResponseFromIdentity(identity Identity) UserResponse {
	return UserResponse{
		ID:    identity.ID(),
		Email: identity.Email(),
		Name:  identity.Name(),
		Role:  identity.Role(),
	}
}

type loginResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

func (a *APIController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	result, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.JSON(loginResponse{
		Success: true,
		User:    userResponseFromIdentity(result.Identity),
		Token:   result.Token,
	})
}

// RegisterRequest is the self-registration payload. Every account created
// through this endpoint is a student.
type RegisterRequest struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	TargetDegree    string `form:"target_degree" json:"target_degree"`
	TargetCountry   string `form:"target_country" json:"target_country"`
	IntakeYear      int    `form:"intake_year" json:"intake_year"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(func(value any) error {
				s, _ := value.(string)
				if s != r.Password {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
		),
	)
}

type registerResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

func (a *APIController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	handler := NewRegisterStudentHandler(a.Repo).WithLogger(a.Logger)
	user, err := handler.Execute(c.Context(), RegisterStudentMessage{
		FirstName:     payload.FirstName,
		LastName:      payload.LastName,
		Email:         payload.Email,
		Phone:         payload.Phone,
		Password:      payload.Password,
		TargetDegree:  payload.TargetDegree,
		TargetCountry: payload.TargetCountry,
		IntakeYear:    payload.IntakeYear,
	})
	if err != nil {
		// RenderError folds conflicts into the same generic 400 body as a
		// validation failure, so the endpoint never confirms whether an
		// email is already registered.
		return RenderError(c, a.Logger, err)
	}

	result, err := a.Auther.IssueSession(identityFromUser(user))
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(registerResponse{
		Success: true,
		User:    userResponseFromIdentity(result.Identity),
		Token:   result.Token,
	})
}

func (a *APIController) MeGet(c *fiber.Ctx) error {
	session, err := GetSession(c, a.Config.GetContextKey())
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	identity, err := a.Auther.IdentityFromSession(c.Context(), session)
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    userResponseFromIdentity(identity),
	})
}

// GDPRExportRequest identifies the data subject by email.
type GDPRExportRequest struct {
	Email string `form:"email" json:"email"`
}

func (r GDPRExportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *APIController) GDPRExportPost(c *fiber.Ctx) error {
	payload := new(GDPRExportRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	bundle, err := a.GDPR.Export(c.Context(), payload.Email)
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bundle,
		"message": "Data export generated",
	})
}

// GDPRDeleteRequest requires the literal confirmation phrase alongside the
// subject email.
type GDPRDeleteRequest struct {
	Email        string `form:"email" json:"email"`
	Confirmation string `form:"confirmation" json:"confirmation"`
}

func (r GDPRDeleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Confirmation, validation.Required),
	)
}

func (a *APIController) GDPRDeletePost(c *fiber.Ctx) error {
	payload := new(GDPRDeleteRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.GDPR.Delete(c.Context(), payload.Email, payload.Confirmation); err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "All personal data has been deleted",
	})
}

// UniversityResponse is the catalog list item.
type UniversityResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (a *APIController) listUniversities(c *fiber.Ctx) error {
	records, err := a.Repo.Universities().ListActive(c.Context())
	if err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list universities"))
	}

	out := make([]UniversityResponse, 0, len(records))
	for _, u := range records {
		out = append(out, UniversityResponse{ID: u.ID, Name: u.Name})
	}

	return c.JSON(out)
}

func (a *APIController) UniversitiesGet(c *fiber.Ctx) error {
	return a.listUniversities(c)
}

func (a *APIController) AdminUniversitiesGet(c *fiber.Ctx) error {
	return a.listUniversities(c)
}

// InquiryRequest is the public contact form: a prospective applicant plus
// the consent they granted when submitting.
type InquiryRequest struct {
	Name           string `form:"name" json:"name"`
	Email          string `form:"email" json:"email"`
	Phone          string `form:"phone_number" json:"phone_number"`
	Message        string `form:"message" json:"message"`
	ConsentPurpose string `form:"consent_purpose" json:"consent_purpose"`
	ConsentGranted bool   `form:"consent_granted" json:"consent_granted"`
}

func (r InquiryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.ConsentPurpose, validation.Required),
	)
}

func (a *APIController) InquiryPost(c *fiber.Ctx) error {
	payload := new(InquiryRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest))
	}

	applicant := &Applicant{
		ID:       uuid.New(),
		FullName: payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Message:  payload.Message,
	}

	if _, err := a.Repo.Applicants().Create(c.Context(), applicant); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record inquiry"))
	}

	consent := &Consent{
		ID:      uuid.New(),
		Email:   payload.Email,
		Purpose: payload.ConsentPurpose,
		Granted: payload.ConsentGranted,
	}

	if _, err := a.Repo.Consents().Create(c.Context(), consent); err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record consent"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Inquiry received",
	})
}

func (a *APIController) AdminUploadPost(c *fiber.Ctx) error {
	if a.Uploader == nil {
		return RenderError(c, a.Logger, goerrors.New("uploads are not configured", goerrors.CategoryOperation))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return RenderError(c, a.Logger, goerrors.New("a file field is required", goerrors.CategoryValidation).
			WithTextCode("UPLOAD_MISSING_FILE").
			WithCode(goerrors.CodeBadRequest))
	}

	if fileHeader.Size > MaxUploadSize {
		return RenderError(c, a.Logger, ErrUploadTooLarge)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open upload"))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return RenderError(c, a.Logger, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read upload"))
	}

	url, err := a.Uploader.Upload(c.Context(), fileHeader.Filename, data)
	if err != nil {
		return RenderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"url":     url,
	})
}
