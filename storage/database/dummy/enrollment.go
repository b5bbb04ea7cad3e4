package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func (repo *enrollmentRepository) find(userID, courseID string) *enrollment.Enrollment {
	for _, enr := range repo.db.table {
		if enr.UserID == userID && enr.CourseID == courseID {
			return enr
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.find(enr.UserID, enr.CourseID) != nil {
		return enrollment.Enrollment{}, enrollment.ErrExists
	}
	enr.ID = uuid.New().String()
	repo.db.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr := repo.find(userID, courseID); enr != nil {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrollments []enrollment.Enrollment
	for _, enr := range repo.db.table {
		if filter.CourseID != "" && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.UserID != "" && enr.UserID != filter.UserID {
			continue
		}
		if filter.IsActive != nil && enr.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.Modes) > 0 && !core.StringInSlice(enr.Mode, filter.Modes) {
			continue
		}
		enrollments = append(enrollments, *enr)
	}
	sort.SliceStable(enrollments, func(i, j int) bool { return less(enrollments[i], enrollments[j], filter.Ordering) })
	return enrollments, nil
}

func less(a, b enrollment.Enrollment, ordering []core.DBOrdering) bool {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "created_at":
			cmp = compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			cmp = compareTimes(a.UpdatedAt, b.UpdatedAt)
		case "mode":
			cmp = strings.Compare(a.Mode, b.Mode)
		case "user_id":
			cmp = strings.Compare(a.UserID, b.UserID)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[enr.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.table[enr.ID] = &enr
	return enr, nil
}
