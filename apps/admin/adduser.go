package main

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

// addUser creates or updates an active staff user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	roles := []string{user.RoleTeacher}
	if isAdmin {
		roles = user.AllRoles
	}
	_, err := cli.usrSvc.Upsert(context.Background(), name, email, pwd, roles)
	return err
}
