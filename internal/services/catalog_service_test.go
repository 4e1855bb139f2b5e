package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/cache"
	"github.com/Mishael-2584/odel-portal/internal/mocks"
)

func testCourses() []domain.Course {
	return []domain.Course{
		{ID: 12, FullName: "Bachelor of Science in Nursing", ShortName: "BSN", CategoryID: 3, CategoryName: "Health Sciences", EnrolledUserCount: 45, TimeModified: 1700000300},
		{ID: 13, FullName: "Theology I", ShortName: "THEO101", CategoryID: 4, CategoryName: "Theology", EnrolledUserCount: 20, TimeModified: 1700000100},
		{ID: 14, FullName: "Community Health Nursing", ShortName: "CHN", CategoryID: 3, CategoryName: "Health Sciences", EnrolledUserCount: 30, TimeModified: 1700000200},
		{ID: 15, FullName: "Accounting Basics", ShortName: "ACC101", CategoryID: 5, CategoryName: "Business", EnrolledUserCount: 60, TimeModified: 1700000400},
	}
}

func testCategories() []domain.Category {
	return []domain.Category{
		{ID: 2, Name: "Schools", Parent: 0, CourseCount: 0},
		{ID: 3, Name: "Health Sciences", Parent: 2, CourseCount: 2},
		{ID: 4, Name: "Theology", Parent: 2, CourseCount: 1},
		{ID: 5, Name: "Business", Parent: 2, CourseCount: 1},
	}
}

func createCatalogServiceForTest(t *testing.T) (domain.CatalogService, *mocks.MockMoodleClient, *cache.MemoryCache) {
	t.Helper()

	moodle := mocks.NewMockMoodleClient()
	moodle.GetCoursesFunc = func(context.Context) ([]domain.Course, error) {
		return testCourses(), nil
	}
	moodle.GetCategoriesFunc = func(context.Context) ([]domain.Category, error) {
		return testCategories(), nil
	}

	c := cache.NewMemoryCache(5 * time.Minute)
	svc := NewCatalogService(moodle, c, 10*time.Minute, zerolog.Nop())
	return svc, moodle, c
}

func TestCatalogServiceImpl_ListCourses(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      domain.CourseListOptions
		wantIDs   []int
		wantTotal int
	}{
		{
			name:      "unfiltered",
			opts:      domain.CourseListOptions{},
			wantIDs:   []int{12, 13, 14, 15},
			wantTotal: 4,
		},
		{
			name:      "category filter",
			opts:      domain.CourseListOptions{CategoryID: 3},
			wantIDs:   []int{12, 14},
			wantTotal: 2,
		},
		{
			name:      "search is case-insensitive",
			opts:      domain.CourseListOptions{Search: "nursing"},
			wantIDs:   []int{12, 14},
			wantTotal: 2,
		},
		{
			name:      "search matches category name",
			opts:      domain.CourseListOptions{Search: "health sciences"},
			wantIDs:   []int{12, 14},
			wantTotal: 2,
		},
		{
			name:      "search and category combine",
			opts:      domain.CourseListOptions{CategoryID: 3, Search: "community"},
			wantIDs:   []int{14},
			wantTotal: 1,
		},
		{
			name:      "pagination slices but reports the full total",
			opts:      domain.CourseListOptions{Offset: 1, Limit: 2},
			wantIDs:   []int{13, 14},
			wantTotal: 4,
		},
		{
			name:      "offset past the end is empty",
			opts:      domain.CourseListOptions{Offset: 10, Limit: 2},
			wantIDs:   []int{},
			wantTotal: 4,
		},
		{
			name:      "no match",
			opts:      domain.CourseListOptions{Search: "astrophysics"},
			wantIDs:   []int{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := createCatalogServiceForTest(t)

			courses, total, err := svc.ListCourses(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListCourses() error = %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(courses) != len(tt.wantIDs) {
				t.Fatalf("got %d courses, want %d", len(courses), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if courses[i].ID != id {
					t.Errorf("courses[%d].ID = %d, want %d", i, courses[i].ID, id)
				}
			}
		})
	}
}

func TestCatalogServiceImpl_ListCoursesUsesCache(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	var calls int32
	moodle.GetCoursesFunc = func(context.Context) ([]domain.Course, error) {
		atomic.AddInt32(&calls, 1)
		return testCourses(), nil
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.ListCourses(ctx, domain.CourseListOptions{}); err != nil {
			t.Fatalf("ListCourses() error = %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("LMS fetched %d times, want 1 (cached)", got)
	}
}

func TestCatalogServiceImpl_ListCoursesPropagatesFetchError(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	fetchErr := &domain.TransportError{StatusCode: 502, Function: "core_course_get_courses"}
	moodle.GetCoursesFunc = func(context.Context) ([]domain.Course, error) {
		return nil, fetchErr
	}

	_, _, err := svc.ListCourses(ctx, domain.CourseListOptions{})
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

func TestCatalogServiceImpl_GetCourse(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := createCatalogServiceForTest(t)

	course, err := svc.GetCourse(ctx, 13)
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if course == nil || course.FullName != "Theology I" {
		t.Errorf("course = %+v", course)
	}

	missing, err := svc.GetCourse(ctx, 999)
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestCatalogServiceImpl_CategoryTree(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cache yields empty tree without fetching", func(t *testing.T) {
		svc, moodle, _ := createCatalogServiceForTest(t)
		moodle.GetCategoriesFunc = func(context.Context) ([]domain.Category, error) {
			t.Error("tree construction must not fetch from the LMS")
			return nil, nil
		}

		tree, err := svc.CategoryTree(ctx)
		if err != nil {
			t.Fatalf("CategoryTree() error = %v", err)
		}
		if len(tree) != 0 {
			t.Errorf("tree has %d nodes, want 0", len(tree))
		}
	})

	t.Run("builds adjacency from the cached list", func(t *testing.T) {
		svc, _, _ := createCatalogServiceForTest(t)

		// Populate the category cache through a list fetch first.
		if _, err := svc.ListCategories(ctx); err != nil {
			t.Fatalf("ListCategories() error = %v", err)
		}

		tree, err := svc.CategoryTree(ctx)
		if err != nil {
			t.Fatalf("CategoryTree() error = %v", err)
		}
		root, ok := tree[2]
		if !ok {
			t.Fatal("missing root node")
		}
		if len(root.Children) != 3 {
			t.Errorf("root has %d children, want 3", len(root.Children))
		}
		if leaf := tree[3]; leaf == nil || leaf.Parent != 2 {
			t.Errorf("node 3 = %+v, want parent 2", leaf)
		}
	})

	t.Run("orphan children are dropped from adjacency", func(t *testing.T) {
		svc, moodle, _ := createCatalogServiceForTest(t)
		moodle.GetCategoriesFunc = func(context.Context) ([]domain.Category, error) {
			return []domain.Category{
				{ID: 2, Name: "Schools", Parent: 0},
				{ID: 9, Name: "Orphan", Parent: 77},
			}, nil
		}
		if _, err := svc.ListCategories(ctx); err != nil {
			t.Fatalf("ListCategories() error = %v", err)
		}

		tree, err := svc.CategoryTree(ctx)
		if err != nil {
			t.Fatalf("CategoryTree() error = %v", err)
		}
		if len(tree) != 2 {
			t.Errorf("tree has %d nodes, want 2", len(tree))
		}
		if len(tree[2].Children) != 0 {
			t.Errorf("node 2 children = %v, want none", tree[2].Children)
		}
	})
}

func TestCatalogServiceImpl_CategoryPath(t *testing.T) {
	ctx := context.Background()

	t.Run("walks leaf to root", func(t *testing.T) {
		svc, _, _ := createCatalogServiceForTest(t)
		if _, err := svc.ListCategories(ctx); err != nil {
			t.Fatalf("ListCategories() error = %v", err)
		}

		path, err := svc.CategoryPath(ctx, 3)
		if err != nil {
			t.Fatalf("CategoryPath() error = %v", err)
		}
		if len(path) != 2 {
			t.Fatalf("path length = %d, want 2", len(path))
		}
		if path[0].Name != "Schools" || path[1].Name != "Health Sciences" {
			t.Errorf("path = %+v, want root-to-leaf order", path)
		}
	})

	t.Run("cyclic parent links terminate", func(t *testing.T) {
		svc, moodle, _ := createCatalogServiceForTest(t)
		moodle.GetCategoriesFunc = func(context.Context) ([]domain.Category, error) {
			return []domain.Category{
				{ID: 10, Name: "A", Parent: 11},
				{ID: 11, Name: "B", Parent: 10},
			}, nil
		}
		if _, err := svc.ListCategories(ctx); err != nil {
			t.Fatalf("ListCategories() error = %v", err)
		}

		done := make(chan []domain.PathSegment, 1)
		go func() {
			path, _ := svc.CategoryPath(ctx, 10)
			done <- path
		}()
		select {
		case path := <-done:
			if len(path) != 2 {
				t.Errorf("path length = %d, want 2 (each node visited once)", len(path))
			}
		case <-time.After(2 * time.Second):
			t.Fatal("CategoryPath did not terminate on a cyclic category list")
		}
	})
}

func TestCatalogServiceImpl_CourseEnrollment(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	var calls int32
	moodle.GetEnrolledUsersFunc = func(_ context.Context, courseID int) ([]domain.MoodleUser, error) {
		atomic.AddInt32(&calls, 1)
		return []domain.MoodleUser{
			{ID: 1, LastAccess: 1717000000},
			{ID: 2, LastAccess: 1717000500},
			{ID: 3, LastAccess: 0},
		}, nil
	}

	stats, err := svc.CourseEnrollment(ctx, 12)
	if err != nil {
		t.Fatalf("CourseEnrollment() error = %v", err)
	}
	if stats.EnrolledCount != 3 {
		t.Errorf("EnrolledCount = %d, want 3", stats.EnrolledCount)
	}
	if stats.ActiveCount != 2 {
		t.Errorf("ActiveCount = %d, want 2 (lastaccess zero is inactive)", stats.ActiveCount)
	}
	if stats.LastAccess != 1717000500 {
		t.Errorf("LastAccess = %d, want most recent", stats.LastAccess)
	}

	// Second call is a cache hit.
	if _, err := svc.CourseEnrollment(ctx, 12); err != nil {
		t.Fatalf("CourseEnrollment() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("LMS fetched %d times, want 1", got)
	}
}

func TestCatalogServiceImpl_CourseStatistics(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := createCatalogServiceForTest(t)

	stats, err := svc.CourseStatistics(ctx)
	if err != nil {
		t.Fatalf("CourseStatistics() error = %v", err)
	}
	if stats.TotalCourses != 4 {
		t.Errorf("TotalCourses = %d, want 4", stats.TotalCourses)
	}
	if want := 45 + 20 + 30 + 60; stats.TotalEnrollments != want {
		t.Errorf("TotalEnrollments = %d, want %d", stats.TotalEnrollments, want)
	}
	if stats.CoursesByCategory[3] != 2 {
		t.Errorf("CoursesByCategory[3] = %d, want 2", stats.CoursesByCategory[3])
	}
	if len(stats.RecentCourses) != 4 {
		t.Fatalf("RecentCourses length = %d, want 4", len(stats.RecentCourses))
	}
	if stats.RecentCourses[0].ID != 15 {
		t.Errorf("most recent course id = %d, want 15", stats.RecentCourses[0].ID)
	}
}

func TestCatalogServiceImpl_CategoryStatistics(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	var concurrent, peak int32
	moodle.GetEnrolledUsersFunc = func(_ context.Context, courseID int) ([]domain.MoodleUser, error) {
		cur := atomic.AddInt32(&concurrent, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		defer atomic.AddInt32(&concurrent, -1)

		if courseID == 14 {
			return nil, &domain.TransportError{StatusCode: 500, Function: "core_enrol_get_enrolled_users"}
		}
		return []domain.MoodleUser{
			{ID: 1, LastAccess: 1717000000},
			{ID: 2, LastAccess: 0},
		}, nil
	}

	stats, err := svc.CategoryStatistics(ctx, 3)
	if err != nil {
		t.Fatalf("CategoryStatistics() error = %v", err)
	}
	if stats.CourseCount != 2 {
		t.Errorf("CourseCount = %d, want 2", stats.CourseCount)
	}
	// Course 14 failed and is skipped; course 12 contributes 2 enrolled, 1 active.
	if stats.TotalEnrollments != 2 {
		t.Errorf("TotalEnrollments = %d, want 2", stats.TotalEnrollments)
	}
	if stats.TotalActive != 1 {
		t.Errorf("TotalActive = %d, want 1", stats.TotalActive)
	}
	if p := atomic.LoadInt32(&peak); p > 4 {
		t.Errorf("peak concurrent fetches = %d, want at most 4", p)
	}
}

func TestCatalogServiceImpl_UserRolesCached(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	var calls int32
	moodle.GetUserRolesFunc = func(_ context.Context, courseID, userID int) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"student"}, nil
	}

	for i := 0; i < 2; i++ {
		roles, err := svc.UserRoles(ctx, 12, 321)
		if err != nil {
			t.Fatalf("UserRoles() error = %v", err)
		}
		if len(roles) != 1 || roles[0] != "student" {
			t.Errorf("roles = %v", roles)
		}
	}
	// Distinct course/user pairs get distinct cache entries.
	if _, err := svc.UserRoles(ctx, 13, 321); err != nil {
		t.Fatalf("UserRoles() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("LMS fetched %d times, want 2", got)
	}
}

func TestCatalogServiceImpl_ClearCache(t *testing.T) {
	ctx := context.Background()
	svc, moodle, _ := createCatalogServiceForTest(t)

	var calls int32
	moodle.GetCoursesFunc = func(context.Context) ([]domain.Course, error) {
		atomic.AddInt32(&calls, 1)
		return testCourses(), nil
	}

	svc.ListCourses(ctx, domain.CourseListOptions{})
	svc.ClearCache(ctx)
	svc.ListCourses(ctx, domain.CourseListOptions{})

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("LMS fetched %d times, want 2 (cache cleared between)", got)
	}
}
