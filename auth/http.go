package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// AuthController exposes the register, login and me endpoints
type AuthController struct {
	Auther Authenticator
	Logger Logger
}

// NewAuthController builds the controller
func NewAuthController(auther Authenticator) *AuthController {
	if auther == nil {
		panic("auth controller: missing authenticator")
	}
	return &AuthController{
		Auther: auther,
		Logger: defLogger{},
	}
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	if l != nil {
		a.Logger = l
	}
	return a
}

// RegisterRoutes mounts the auth endpoints on the given router
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	app.Post("/register", a.RegisterPost)
	app.Post("/login", a.LoginPost)
	app.Get("/me", a.MeGet)
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse carries a freshly issued token
type TokenResponse struct {
	Token string `json:"token"`
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	token, err := a.Auther.Register(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{Token: token})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{Token: token})
}

// MeGet returns the caller's own id and email. No identity, or an identity
// that no longer resolves, is a 401.
func (a *AuthController) MeGet(c *fiber.Ctx) error {
	identity, ok := IdentityFromContext(c.UserContext())
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	return c.JSON(fiber.Map{
		"user_id": identity.ID(),
		"email":   identity.Email(),
	})
}

// ErrorHandler maps the error taxonomy to HTTP responses. Install it as the
// fiber app's ErrorHandler so controllers can return errors untranslated.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		status := fiber.StatusInternalServerError
		message := "internal server error"
		textCode := ""

		var richErr *goerrors.Error
		if errors.As(err, &richErr) {
			status = statusFromError(err, richErr)
			message = richErr.Message
			textCode = richErr.TextCode
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed", "status", status, "error", err)
			// do not leak internals
			message = "internal server error"
		}

		body := fiber.Map{"error": message}
		if textCode != "" {
			body["code"] = textCode
		}

		return c.Status(status).JSON(body)
	}
}

func statusFromError(err error, richErr *goerrors.Error) int {
	switch {
	case errors.Is(err, ErrRegistrationClosed):
		return fiber.StatusForbidden
	case errors.Is(err, ErrEmailAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenMalformed):
		return fiber.StatusUnauthorized
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
