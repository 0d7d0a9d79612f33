package handlers

import (
	_ "embed"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/internal/application"
	"github.com/oksasatya/account-service/pkg/response"
)

//go:embed static/verified.html
var verifiedPage []byte

// Messages returned to clients. Internal error details are only logged.
const (
	MsgEmptyFields        = "Empty input fields!"
	MsgInvalidName        = "Invalid name entered"
	MsgInvalidEmail       = "Invalid email entered"
	MsgInvalidBirthDate   = "Invalid date of birth entered"
	MsgPasswordTooShort   = "Password is too short!"
	MsgUserExists         = "User with the provided email already exists"
	MsgVerificationSent   = "Verification email sent"
	MsgVerificationFailed = "Verification email failed"
	MsgInvalidPayload     = "Invalid request payload"

	MsgEmptyCredentials   = "Empty credentials supplied"
	MsgNotVerified        = "Email hasn't been verified yet. Check your inbox"
	MsgInvalidPassword    = "Invalid password entered!"
	MsgInvalidCredentials = "Invalid credentials entered!"
	MsgSigninSuccessful   = "Signin successful"

	MsgEmailRequired   = "Please provide an email address"
	MsgNoUser          = "No user found with this email"
	MsgResetSent       = "Password reset email sent"
	MsgResetFailed     = "Error sending the password reset email"
	MsgCurrentPassword = "Current password is incorrect"
	MsgPasswordUpdated = "Password updated successfully"

	MsgNoChallenge = "Account record doesn't exist or has been verified already. Please sign up or log in"
	MsgLinkExpired = "Link has expired. Please sign up again"
	MsgLinkInvalid = "Invalid verification details passed, check your inbox"
)

var validationMessages = map[application.ValidationKind]string{
	application.EmptyFields:      MsgEmptyFields,
	application.InvalidName:      MsgInvalidName,
	application.InvalidEmail:     MsgInvalidEmail,
	application.InvalidBirthDate: MsgInvalidBirthDate,
	application.PasswordTooShort: MsgPasswordTooShort,
}

var stageMessages = map[application.Stage]string{
	application.StageLookupAccount:     "An error occurred while checking for existing user!",
	application.StageHashPassword:      "An error occurred while hashing the password!",
	application.StageSaveAccount:       "An error occurred while saving the user account!",
	application.StageIssueChallenge:    "Couldn't save verification email data!",
	application.StageComparePassword:   "An error occurred while comparing passwords",
	application.StageGeneratePassword:  "An error occurred while generating a temporary password",
	application.StageUpdatePassword:    "An error occurred while updating the password",
	application.StageLookupChallenge:   "An error occurred while checking for existing user verification record",
	application.StageClearExpired:      "An error occurred while clearing expired user verification record",
	application.StageCompareToken:      "An error occurred while comparing unique string",
	application.StageMarkVerified:      "An error occurred while updating user record to show verified",
	application.StageAcquireSignupLock: "An error occurred while checking for existing user!",
}

type AccountHandler struct {
	Svc    *application.AccountService
	Logger *logrus.Logger
	// VerifiedPath is where Verify redirects, e.g. /user/verified
	VerifiedPath string
}

func NewAccountHandler(svc *application.AccountService, logger *logrus.Logger, verifiedPath string) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, VerifiedPath: verifiedPath}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var req application.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}
	if err := h.Svc.Signup(c.Request.Context(), req); err != nil {
		h.fail(c, err, MsgVerificationFailed)
		return
	}
	response.Pending(c, http.StatusAccepted, MsgVerificationSent)
}

func (h *AccountHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}
	view, err := h.Svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrValidation) {
			response.Error(c, http.StatusBadRequest, MsgEmptyCredentials)
			return
		}
		h.fail(c, err, "")
		return
	}
	response.Success(c, http.StatusOK, view, MsgSigninSuccessful)
}

func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, application.ErrValidation) {
			response.Error(c, http.StatusBadRequest, MsgEmailRequired)
			return
		}
		h.fail(c, err, MsgResetFailed)
		return
	}
	response.Success[any](c, http.StatusOK, nil, MsgResetSent)
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), req.Email, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err, "")
		return
	}
	response.Success[any](c, http.StatusOK, nil, MsgPasswordUpdated)
}

// Verify redeems the link from the verification mail and redirects to the verified page.
func (h *AccountHandler) Verify(c *gin.Context) {
	res, err := h.Svc.RedeemVerification(c.Request.Context(), c.Param("accountId"), c.Param("rawToken"))
	if err != nil {
		h.redirectError(c, stageMessage(err))
		return
	}
	switch res {
	case application.RedemptionSuccess:
		c.Redirect(http.StatusFound, h.VerifiedPath)
	case application.RedemptionExpired:
		h.redirectError(c, MsgLinkExpired)
	case application.RedemptionMismatch:
		h.redirectError(c, MsgLinkInvalid)
	default:
		h.redirectError(c, MsgNoChallenge)
	}
}

func (h *AccountHandler) Verified(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", verifiedPage)
}

func (h *AccountHandler) redirectError(c *gin.Context, msg string) {
	q := url.Values{}
	q.Set("error", "true")
	q.Set("message", msg)
	c.Redirect(http.StatusFound, h.VerifiedPath+"?"+q.Encode())
}

// fail maps a service error to status code and message. dispatchMsg is used for mail failures.
func (h *AccountHandler) fail(c *gin.Context, err error, dispatchMsg string) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, validationMessages[verr.Kind])
	case errors.Is(err, application.ErrDuplicateAccount):
		response.Error(c, http.StatusConflict, MsgUserExists)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, MsgInvalidCredentials)
	case errors.Is(err, application.ErrInvalidPassword):
		response.Error(c, http.StatusUnauthorized, MsgInvalidPassword)
	case errors.Is(err, application.ErrCurrentPasswordIncorrect):
		response.Error(c, http.StatusUnauthorized, MsgCurrentPassword)
	case errors.Is(err, application.ErrNotVerified):
		response.Error(c, http.StatusForbidden, MsgNotVerified)
	case errors.Is(err, application.ErrNotFound):
		response.Error(c, http.StatusNotFound, MsgNoUser)
	case errors.Is(err, application.ErrDispatch):
		response.Error(c, http.StatusBadGateway, dispatchMsg)
	default:
		// storage and hashing failures were logged where they happened
		response.Error(c, http.StatusInternalServerError, stageMessage(err))
	}
}

func stageMessage(err error) string {
	if msg, ok := stageMessages[application.StageOf(err)]; ok {
		return msg
	}
	return "An unexpected error occurred"
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "healthy")
}
