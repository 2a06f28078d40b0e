package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ClassDetailKey returns the cache key for a class's merged detail view.
func (r *CacheKeyStruct) ClassDetailKey(classID int) string {
	return fmt.Sprintf("class:%d:detail", classID)
}

// TimetableTeacherLockKey returns the lock key serializing conflict
// validation for one teacher on one day of one semester/year.
func (r *CacheKeyStruct) TimetableTeacherLockKey(teacherID, day int, semester, academicYear string) string {
	return fmt.Sprintf("lock:timetable:teacher:%d:%d:%s:%s", teacherID, day, semester, academicYear)
}

// TimetableClassLockKey returns the lock key serializing conflict
// validation for one class on one day of one semester/year.
func (r *CacheKeyStruct) TimetableClassLockKey(classID, day int, semester, academicYear string) string {
	return fmt.Sprintf("lock:timetable:class:%d:%d:%s:%s", classID, day, semester, academicYear)
}

var CacheKey = NewCacheKeyStruct()
