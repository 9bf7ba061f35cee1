// Package cachekey names every cached read. A key with fewer parts is a
// prefix that invalidates all keys under it.
package cachekey

import (
	"time"

	"github.com/jwalitptl/clinic-portal/pkg/query"
)

const (
	courses         = "courses"
	course          = "course"
	adminCourses    = "admin-courses"
	enrollments     = "enrollments"
	enrollmentCheck = "enrollment-check"
	courseProgress  = "course-progress"
	lessonProgress  = "lesson-progress"
	isAdmin         = "is-admin"
	waitingRoom     = "waiting-room"
	billing         = "billing"
	blog            = "blog"
	professionals   = "professionals"
	consultations   = "consultation-types"
)

const dayLayout = "2006-01-02"

func Courses() query.Key              { return query.K(courses) }
func AllCourses() query.Key           { return query.K(course) }
func Course(slug string) query.Key    { return query.K(course, slug) }
func AdminCourses() query.Key         { return query.K(adminCourses) }
func AdminCourse(id string) query.Key { return query.K(adminCourses, id) }

func AllEnrollments() query.Key           { return query.K(enrollments) }
func Enrollments(userID string) query.Key { return query.K(enrollments, userID) }
func AllEnrollmentChecks() query.Key      { return query.K(enrollmentCheck) }
func EnrollmentCheck(userID, courseID string) query.Key {
	return query.K(enrollmentCheck, userID, courseID)
}

func AllCourseProgress() query.Key           { return query.K(courseProgress) }
func CourseProgress(userID string) query.Key { return query.K(courseProgress, userID) }
func LessonProgress(userID, courseID string) query.Key {
	return query.K(lessonProgress, userID, courseID)
}

func IsAdmin(userID string) query.Key { return query.K(isAdmin, userID) }

func AllWaitingRoom() query.Key { return query.K(waitingRoom) }
func WaitingRoom(day time.Time) query.Key {
	return query.K(waitingRoom, day.Format(dayLayout))
}

func AllBilling() query.Key { return query.K(billing) }
func Billing(from, to time.Time) query.Key {
	return query.K(billing, from.Format(dayLayout), to.Format(dayLayout))
}

func AllBlog() query.Key             { return query.K(blog) }
func BlogPosts() query.Key           { return query.K(blog, "published") }
func BlogPost(slug string) query.Key { return query.K(blog, "post", slug) }
func AdminBlogPosts() query.Key      { return query.K(blog, "admin") }

func Professionals() query.Key     { return query.K(professionals) }
func ConsultationTypes() query.Key { return query.K(consultations) }
