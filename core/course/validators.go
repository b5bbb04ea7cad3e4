package course

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursetools/core"
)

var (
	keyPartRegex = regexp.MustCompile(`^[\w.\-~]+$`)

	courseKeyTag  = "coursekey"
	courseKeyText = "invalid course key, expected course-v1:ORG+NUMBER+RUN"

	modeSlugTag  = "modeslug"
	modeSlugText = "unknown course mode"
)

func init() {
	_ = core.Validate.RegisterValidation(courseKeyTag, courseKeyValidation)
	core.RegisterCustomTranslation(courseKeyTag, courseKeyText)

	_ = core.Validate.RegisterValidation(modeSlugTag, modeSlugValidation)
	core.RegisterCustomTranslation(modeSlugTag, modeSlugText)
}

func courseKeyValidation(fl validator.FieldLevel) bool {
	_, err := ParseKey(fl.Field().String())
	return err == nil
}

func modeSlugValidation(fl validator.FieldLevel) bool {
	return IsKnownMode(fl.Field().String())
}
