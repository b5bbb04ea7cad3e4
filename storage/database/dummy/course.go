package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/coursetools/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[crs.ID]; ok {
		return course.Course{}, course.ErrCourseExists
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) SaveCourseMode(_ context.Context, mode course.Mode) (course.Mode, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[mode.CourseID]; !ok {
		return course.Mode{}, course.ErrNotFound
	}
	modes, ok := repo.db.modes[mode.CourseID]
	if !ok {
		modes = make(map[string]*course.Mode)
		repo.db.modes[mode.CourseID] = modes
	}
	if orig, ok := modes[mode.Slug]; ok {
		mode.ID = orig.ID
	} else {
		mode.ID = uuid.New().String()
	}
	modes[mode.Slug] = &mode
	return mode, nil
}

func (repo *courseRepository) GetCourseMode(_ context.Context, courseID, slug string) (course.Mode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mode, ok := repo.db.modes[courseID][slug]; ok {
		return *mode, nil
	}
	return course.Mode{}, course.ErrModeNotFound
}

func (repo *courseRepository) QueryCourseModes(_ context.Context, courseID string) ([]course.Mode, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	modes := make([]course.Mode, 0, len(repo.db.modes[courseID]))
	for _, mode := range repo.db.modes[courseID] {
		modes = append(modes, *mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Slug < modes[j].Slug })
	return modes, nil
}

func (repo *courseRepository) DeleteCourseMode(_ context.Context, courseID, slug string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.modes[courseID][slug]; !ok {
		return course.ErrModeNotFound
	}
	delete(repo.db.modes[courseID], slug)
	return nil
}
