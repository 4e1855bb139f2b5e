package domain

import "time"

// Course is a course as returned by the Moodle web service. Courses are owned
// by the LMS; this service only reads and caches them.
type Course struct {
	ID                int    `json:"id"`
	FullName          string `json:"fullname"`
	ShortName         string `json:"shortname"`
	Summary           string `json:"summary"`
	CategoryID        int    `json:"categoryid"`
	CategoryName      string `json:"categoryname"`
	IDNumber          string `json:"idnumber"`
	StartDate         int64  `json:"startdate"`
	EndDate           int64  `json:"enddate"`
	EnrolledUserCount int    `json:"enrolledusercount"`
	Visible           int    `json:"visible"`
	Format            string `json:"format"`
	Lang              string `json:"lang"`
	TimeCreated       int64  `json:"timecreated"`
	TimeModified      int64  `json:"timemodified"`
}

// Category is a Moodle course category. Categories form a forest rooted at
// Parent == 0.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Parent      int    `json:"parent"`
	CourseCount int    `json:"coursecount"`
	Visible     int    `json:"visible"`
	Depth       int    `json:"depth"`
	Path        string `json:"path"`
}

// CategoryNode is one node of the reconstructed category tree.
type CategoryNode struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Parent   int    `json:"parent"`
	Children []int  `json:"children"`
}

// CategoryTree maps category id to its node.
type CategoryTree map[int]*CategoryNode

// PathSegment is one step of a root-to-leaf category path.
type PathSegment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MoodleUser is a user record as returned by the LMS.
type MoodleUser struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	FullName   string `json:"fullname"`
	Email      string `json:"email"`
	LastAccess int64  `json:"lastaccess"`
}

// CourseEnrollmentStats summarizes enrollment for a single course. A user is
// counted active when their lastaccess is non-zero.
type CourseEnrollmentStats struct {
	CourseID      int   `json:"course_id"`
	EnrolledCount int   `json:"enrolled_count"`
	ActiveCount   int   `json:"active_count"`
	LastAccess    int64 `json:"last_access"`
}

// CourseStats is the dashboard summary across the whole catalog.
type CourseStats struct {
	TotalCourses      int         `json:"total_courses"`
	TotalEnrollments  int         `json:"total_enrollments"`
	CoursesByCategory map[int]int `json:"courses_by_category"`
	RecentCourses     []Course    `json:"recent_courses"`
}

// CategoryStats aggregates enrollment across every course of one category.
type CategoryStats struct {
	CategoryID       int `json:"category_id"`
	CourseCount      int `json:"course_count"`
	TotalEnrollments int `json:"total_enrollments"`
	TotalActive      int `json:"total_active"`
}

// MagicCode is one issued passwordless login code. A code becomes permanently
// unusable once used, expired, or after the attempt limit is reached.
type MagicCode struct {
	ID             uint
	Email          string
	Code           string
	MoodleUserID   int
	ExpiresAt      time.Time
	IsUsed         bool
	AttemptedCount int
	CreatedAt      time.Time
}

// StudentSession is a persisted student session row. The row's IsActive flag
// is the source of truth for logout, independent of the token's own expiry.
type StudentSession struct {
	ID             string
	Email          string
	MoodleUserID   int
	MoodleUsername string
	StudentName    string
	Token          string
	ExpiresAt      time.Time
	IPAddress      string
	UserAgent      string
	IsActive       bool
	CreatedAt      time.Time
}

// AdminSession is a persisted admin session row.
type AdminSession struct {
	ID        string
	AdminID   uint
	Email     string
	Token     string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	IsActive  bool
	CreatedAt time.Time
}

// Admin is a portal administrator account.
type Admin struct {
	ID           uint
	Email        string
	PasswordHash string
	Name         string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthResult is the outcome of a successful code verification or admin login.
type AuthResult struct {
	Token     string
	SessionID string
	ExpiresIn int64
	Student   *StudentClaims
	Admin     *AdminClaims
}
