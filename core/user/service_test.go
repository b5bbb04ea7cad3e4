package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/user"
	"github.com/trezcool/coursetools/testutil"
)

func TestService_Authenticate(t *testing.T) {
	svcs := testutil.NewServices(t)
	pwd := "Pa$$w0rd!"
	testutil.CreateUser(t, svcs.UserRepo, "Awe", "awe", "awe@test.cd", pwd, []string{user.RoleLearner}, true)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "unknown user", uname: "lol", pwd: pwd, wantErr: user.ErrNotFound},
		{name: "wrong password", uname: "awe", pwd: "lol", wantErr: user.ErrNotFound},
		{name: "username", uname: " AWE ", pwd: pwd},
		{name: "email", uname: "awe@test.cd", pwd: pwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svcs.Users.Authenticate(context.Background(), tt.uname, tt.pwd)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && usr.Username != "awe" {
				t.Errorf("Authenticate() = %+v", usr)
			}
		})
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svcs := testutil.NewServices(t)
	awe := testutil.CreateUser(t, svcs.UserRepo, "Awe", "awe", "awe@test.cd", "", nil, true)

	tests := []struct {
		name      string
		uname     string
		email     string
		excl      []user.User
		wantField string
	}{
		{name: "unique", uname: "new", email: "new@test.cd"},
		{name: "username taken", uname: "awe", email: "new@test.cd", wantField: "username"},
		{name: "email taken", uname: "new", email: "awe@test.cd", wantField: "email"},
		{name: "excluded user", uname: "awe", email: "awe@test.cd", excl: []user.User{awe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svcs.Users.CheckUniqueness(context.Background(), tt.uname, tt.email, tt.excl...)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("CheckUniqueness() error = %v", err)
				}
				return
			}
			vErr, ok := err.(*core.ValidationError)
			if !ok {
				t.Fatalf("CheckUniqueness() error = %v, want *core.ValidationError", err)
			}
			if _, ok := vErr.FieldMap()[tt.wantField]; !ok {
				t.Errorf("CheckUniqueness() fields = %v, want %s", vErr.FieldMap(), tt.wantField)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svcs := testutil.NewServices(t)
	testutil.CreateUser(t, svcs.UserRepo, "Awe", "awe", "awe@test.cd", "", nil, true)

	tests := []struct {
		name       string
		nu         user.NewUser
		wantFields []string
	}{
		{name: "required fields", wantFields: []string{"name", "username", "email", "password", "password_confirm"}},
		{
			name:       "weak password",
			nu:         user.NewUser{Name: "Hero", Username: "hero", Password: "12345678", PasswordConfirm: "12345678"},
			wantFields: []string{"password"},
		},
		{
			name:       "password mismatch",
			nu:         user.NewUser{Name: "Hero", Username: "hero", Password: "LolC@t123", PasswordConfirm: "LolC@t12"},
			wantFields: []string{"password_confirm"},
		},
		{
			name:       "unknown role",
			nu:         user.NewUser{Name: "Hero", Username: "hero", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Roles: []string{"king:"}},
			wantFields: []string{"roles"},
		},
		{
			name:       "username taken",
			nu:         user.NewUser{Name: "Awe 2", Username: "AWE", Password: "LolC@t123", PasswordConfirm: "LolC@t123"},
			wantFields: []string{"username"},
		},
		{
			name: "valid",
			nu: user.NewUser{
				Name: " Hero ", Email: "Hero@Test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleLearner},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, svcs.Users)
			if len(tt.wantFields) > 0 {
				fields := fieldErrors(t, err)
				for _, f := range tt.wantFields {
					if _, ok := fields[f]; !ok {
						t.Errorf("Validate() fields = %v, missing %s", fields, f)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}

			usr, err := svcs.Users.Create(ctx, tt.nu)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if usr.Name != "Hero" || usr.Email != "hero@test.cd" || !usr.IsActive {
				t.Errorf("Create() = %+v", usr)
			}
			if err = usr.CheckPassword(tt.nu.Password); err != nil {
				t.Errorf("CheckPassword() error = %v", err)
			}
		})
	}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	switch e := errors.Cause(err).(type) {
	case *core.ValidationError:
		return e.FieldMap()
	case validator.ValidationErrors:
		return core.TranslateErrors(e)
	default:
		t.Fatalf("error = %v, want a validation error", err)
		return nil
	}
}

func TestService_SetPassword(t *testing.T) {
	ctx := context.Background()
	svcs := testutil.NewServices(t)
	usr := testutil.CreateUser(t, svcs.UserRepo, "Awe", "awe", "awe@test.cd", "old", nil, true)

	updated, err := svcs.Users.SetPassword(ctx, usr, "LolC@t123")
	if err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err = svcs.Users.Authenticate(ctx, "awe", "LolC@t123"); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}
	if !updated.UpdatedAt.After(usr.UpdatedAt) {
		t.Error("SetPassword() did not touch UpdatedAt")
	}
}
