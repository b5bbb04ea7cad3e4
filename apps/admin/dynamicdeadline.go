package main

import (
	"context"
	"fmt"

	"github.com/trezcool/coursetools/core/upgrade"
)

func (cli *commandLine) setDynamicDeadline(enable bool, days int) error {
	ctx := context.Background()
	var (
		cfg upgrade.Config
		err error
	)
	if enable {
		cfg, err = cli.deadlines.Enable(ctx, days, changedBy)
	} else {
		cfg, err = cli.deadlines.Disable(ctx, changedBy)
	}
	if err != nil {
		return err
	}
	fmt.Printf("dynamic upgrade deadlines: enabled=%t days=%d\n", cfg.Enabled, cfg.DeadlineDays)
	return nil
}

func (cli *commandLine) setCourseDynamicDeadline(courseID string, uc upgrade.UpdateCourseConfig) error {
	ctx := context.Background()
	if _, err := cli.courses.Get(ctx, courseID); err != nil {
		return err
	}
	cfg, err := cli.deadlines.SaveCourseConfig(ctx, courseID, uc, changedBy)
	if err != nil {
		return err
	}
	fmt.Printf("%s dynamic upgrade deadlines: enabled=%t opt_out=%t days=%d\n", cfg.CourseID, cfg.Enabled, cfg.OptOut, cfg.DeadlineDays)
	return nil
}
