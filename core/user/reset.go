package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
)

const passwordResetTemplate = "password_reset"

type ResetUserPassword struct {
	Token           string `json:"token" validate:"required"`
	UID             string `json:"uid" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// PasswordReset mails password reset links and resets passwords with the tokens they carry.
type PasswordReset struct {
	users  *Service
	tokens TokenGenerator
	mailer core.EmailService
	conf   *core.Config
}

func NewPasswordReset(users *Service, conf *core.Config, mailer core.EmailService) *PasswordReset {
	return &PasswordReset{
		users:  users,
		tokens: NewTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta),
		mailer: mailer,
		conf:   conf,
	}
}

// Request mails a reset link to the active user with this email.
func (pr *PasswordReset) Request(ctx context.Context, email string) error {
	email = core.CleanString(email, true /* lower */)
	usr, err := pr.users.GetByUsernameOrEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr.Email != email || !usr.IsActive {
		return ErrNotFound
	}

	token, err := pr.tokens.Make(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	name := usr.Name
	if name == "" {
		name = usr.Username
	}
	pr.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset on " + pr.conf.AppName,
		TemplateName: passwordResetTemplate,
		TemplateData: map[string]interface{}{
			"Name":     name,
			"ResetURL": pr.conf.FrontendBaseURL + "/password-reset/" + EncodeUID(usr) + "/" + token,
		},
	})
	return nil
}

func (pr *PasswordReset) Confirm(ctx context.Context, rp ResetUserPassword) (User, error) {
	id, err := DecodeUID(rp.UID)
	if err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "uid", Error: err.Error()})
	}
	usr, err := pr.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, core.NewValidationError(ErrInvalidToken, core.FieldError{Field: "uid", Error: ErrInvalidToken.Error()})
		}
		return User{}, err
	}
	if err = pr.tokens.Verify(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if tag := PasswordPolicyViolation(rp.Password, usr.Name, usr.Username, usr.Email); tag != "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: PasswordPolicyText(tag)})
	}
	return pr.users.SetPassword(ctx, usr, rp.Password)
}
