package dto

import "time"

// GenerateTimetableRequest triggers a generation run for an institution.
// Regenerate must be set when an assignment set already exists; the new run
// fully replaces it. Seed overrides the configured PRNG seed, mainly for
// reproducing a run.
type GenerateTimetableRequest struct {
	Regenerate bool   `json:"regenerate"`
	Seed       *int64 `json:"seed,omitempty" validate:"omitempty"`
}

// TimetableConflict is one lesson unit that could not be placed.
type TimetableConflict struct {
	ClassID   string `json:"classId,omitempty"`
	TeacherID string `json:"teacherId,omitempty"`
	SubjectID string `json:"subjectId"`
	Session   string `json:"session,omitempty"`
	Reason    string `json:"reason"`
}

// ClassShortfallDetail reports demand exceeding supply for a class/session.
type ClassShortfallDetail struct {
	ClassID   string `json:"classId"`
	Session   string `json:"session"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// TeacherOverloadWarning flags a teacher above the weekly cap.
type TeacherOverloadWarning struct {
	TeacherID string `json:"teacherId"`
	Assigned  int    `json:"assigned"`
	Cap       int    `json:"cap"`
}

// TimetableReportResponse is the conflict report returned after a run and
// cached for later reads.
type TimetableReportResponse struct {
	InstitutionID string                   `json:"institutionId"`
	Success       bool                     `json:"success"`
	TotalPlaced   int                      `json:"totalPlaced"`
	Attempts      int                      `json:"attempts"`
	Seed          int64                    `json:"seed"`
	Conflicts     []TimetableConflict      `json:"conflicts"`
	Infeasible    []ClassShortfallDetail   `json:"infeasible,omitempty"`
	Warnings      []TeacherOverloadWarning `json:"warnings,omitempty"`
	ByClass       map[string]int           `json:"conflictsByClass,omitempty"`
	ByTeacher     map[string]int           `json:"conflictsByTeacher,omitempty"`
	GeneratedAt   time.Time                `json:"generatedAt"`
}

// AssignmentQuery filters assignment listings.
type AssignmentQuery struct {
	ClassID   string `form:"classId" json:"classId"`
	TeacherID string `form:"teacherId" json:"teacherId"`
	DayOfWeek int    `form:"dayOfWeek" json:"dayOfWeek" validate:"omitempty,min=1,max=5"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
}
