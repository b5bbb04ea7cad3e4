package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/coursetools/core/course"
	"github.com/trezcool/coursetools/core/upgrade"
	"github.com/trezcool/coursetools/core/user"
)

const changedBy = "admin-cli"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB // nil with the in-memory repositories
	users     *user.Service
	courses   *course.Service
	deadlines *upgrade.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  dynamicdeadline -enable|-disable [-days N] [-course COURSE_ID [-optout]] - configure dynamic upgrade deadlines")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user all roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	deadlineCmd := flag.NewFlagSet("dynamicdeadline", flag.ExitOnError)
	deadlineEnable := deadlineCmd.Bool("enable", false, "Enable dynamic upgrade deadlines.")
	deadlineDisable := deadlineCmd.Bool("disable", false, "Disable dynamic upgrade deadlines.")
	deadlineDays := deadlineCmd.Int("days", 0, "Number of days learners have to upgrade (default from config).")
	deadlineCourse := deadlineCmd.String("course", "", "Configure this course only.")
	deadlineOptOut := deadlineCmd.Bool("optout", false, "Opt the course out of dynamic upgrade deadlines.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "dynamicdeadline":
		if err := deadlineCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deadlineEnable == *deadlineDisable || (*deadlineOptOut && *deadlineCourse == "") {
			deadlineCmd.Usage()
			return errHelp
		}
		if *deadlineCourse != "" {
			return cli.setCourseDynamicDeadline(*deadlineCourse, upgrade.UpdateCourseConfig{
				Enabled:      *deadlineEnable,
				OptOut:       *deadlineOptOut,
				DeadlineDays: *deadlineDays,
			})
		}
		return cli.setDynamicDeadline(*deadlineEnable, *deadlineDays)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
