package main

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/user"
)

var errMissingIdentity = errors.New("username and email are required to create a user")

// addUser updates or creates an active user.User.
// An existing user is looked up by username, or by email when no username is given.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.users.GetByUsernameOrEmail(ctx, lookup)
	switch {
	case err == nil:
		if email != "" && email != usr.Email {
			if err = cli.users.CheckUniqueness(ctx, usr.Username, email, usr); err != nil {
				return err
			}
			usr.Email = email
		}
	case pkgerrors.Cause(err) == user.ErrNotFound:
		if uname == "" || email == "" {
			return errMissingIdentity
		}
		if err = cli.users.CheckUniqueness(ctx, uname, email); err != nil {
			return err
		}
		usr = user.User{Username: uname, Email: email, Roles: []string{user.RoleLearner}}
	default:
		return err
	}

	if name != "" {
		usr.Name = name
	}
	if tag := user.PasswordPolicyViolation(pwd, usr.Name, usr.Username, usr.Email); tag != "" {
		return errors.New(user.PasswordPolicyText(tag))
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.users.Save(ctx, usr)
	return err
}
