package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/cache"
)

// Cache keys are derived from the web service function names, which are
// unique per operation; the category tree has its own fixed key distinct
// from the raw category list.
const (
	keyCourses      = "core_course_get_courses"
	keyCategories   = "core_course_get_categories"
	keyCategoryTree = "category_tree"
)

// recentCourseCount is how many recently modified courses the dashboard
// summary carries.
const recentCourseCount = 5

// enrollmentWorkers bounds the per-course fan-out in CategoryStatistics so a
// large category cannot open an unbounded number of LMS calls at once.
const enrollmentWorkers = 4

// CatalogServiceImpl implements domain.CatalogService: a TTL-cached read
// path over the Moodle catalog plus the derived tree and statistics views.
type CatalogServiceImpl struct {
	moodle  domain.MoodleClient
	cache   domain.Cache
	treeTTL time.Duration
	log     zerolog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(moodle domain.MoodleClient, c domain.Cache, treeTTL time.Duration, log zerolog.Logger) domain.CatalogService {
	return &CatalogServiceImpl{
		moodle:  moodle,
		cache:   c,
		treeTTL: treeTTL,
		log:     log,
	}
}

// cachedAs decodes a cache hit into T. The in-memory backend stores typed
// values; the Redis backend stores json.RawMessage.
func cachedAs[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}
	if raw, ok := v.(json.RawMessage); ok {
		var t T
		if err := json.Unmarshal(raw, &t); err == nil {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (s *CatalogServiceImpl) fetchCourses(ctx context.Context) ([]domain.Course, error) {
	if v, ok := s.cache.Get(ctx, keyCourses); ok {
		if courses, ok := cachedAs[[]domain.Course](v); ok {
			return courses, nil
		}
	}
	courses, err := s.moodle.GetCourses(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("course list fetch failed")
		return nil, err
	}
	s.cache.Set(ctx, keyCourses, courses)
	return courses, nil
}

func (s *CatalogServiceImpl) fetchCategories(ctx context.Context) ([]domain.Category, error) {
	if v, ok := s.cache.Get(ctx, keyCategories); ok {
		if cats, ok := cachedAs[[]domain.Category](v); ok {
			return cats, nil
		}
	}
	cats, err := s.moodle.GetCategories(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("category list fetch failed")
		return nil, err
	}
	s.cache.Set(ctx, keyCategories, cats)
	return cats, nil
}

// ListCourses returns one page of the course list, filtered by category and
// free-text search. Filtering and pagination run in-process over the full
// cached list; the remote query is never narrowed. The second return value
// is the total match count before pagination.
func (s *CatalogServiceImpl) ListCourses(ctx context.Context, opts domain.CourseListOptions) ([]domain.Course, int, error) {
	courses, err := s.fetchCourses(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if opts.CategoryID != 0 && c.CategoryID != opts.CategoryID {
			continue
		}
		if opts.Search != "" && !matchesSearch(c, opts.Search) {
			continue
		}
		filtered = append(filtered, c)
	}

	total := len(filtered)
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < total {
		end = start + opts.Limit
	}
	return filtered[start:end], total, nil
}

// matchesSearch reports whether term appears, case-insensitively, in any of
// the course's full name, summary, category name, short name, or id number.
// All fields already default to "" at the client boundary, so a sparse
// course record never panics here.
func matchesSearch(c domain.Course, term string) bool {
	needle := strings.ToLower(term)
	for _, field := range []string{c.FullName, c.Summary, c.CategoryName, c.ShortName, c.IDNumber} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// GetCourse derives a single course by filtering the full course list.
// A missing id yields (nil, nil).
func (s *CatalogServiceImpl) GetCourse(ctx context.Context, courseID int) (*domain.Course, error) {
	courses, err := s.fetchCourses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].ID == courseID {
			return &courses[i], nil
		}
	}
	return nil, nil
}

// ListCategories returns the flat category list.
func (s *CatalogServiceImpl) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.fetchCategories(ctx)
}

// CategoryTree reconstructs parent->children adjacency from whatever
// category list currently sits in the cache. It never triggers a network
// fetch: an empty cache yields an empty tree. The built tree is itself
// cached under its own key.
func (s *CatalogServiceImpl) CategoryTree(ctx context.Context) (domain.CategoryTree, error) {
	if v, ok := s.cache.Get(ctx, keyCategoryTree); ok {
		if tree, ok := cachedAs[domain.CategoryTree](v); ok {
			return tree, nil
		}
	}

	v, ok := s.cache.Get(ctx, keyCategories)
	if !ok {
		return domain.CategoryTree{}, nil
	}
	cats, ok := cachedAs[[]domain.Category](v)
	if !ok {
		return domain.CategoryTree{}, nil
	}

	tree := buildCategoryTree(cats)
	s.cache.Set(ctx, keyCategoryTree, tree, s.treeTTL)
	return tree, nil
}

// buildCategoryTree is the two-pass construction: one node per category,
// then child-id appends. A child whose parent is unknown (the category list
// in cache was partial) is silently dropped from adjacency, matching the
// portal's breadcrumb behavior.
func buildCategoryTree(cats []domain.Category) domain.CategoryTree {
	tree := make(domain.CategoryTree, len(cats))
	for _, c := range cats {
		tree[c.ID] = &domain.CategoryNode{
			ID:       c.ID,
			Name:     c.Name,
			Parent:   c.Parent,
			Children: []int{},
		}
	}
	for _, c := range cats {
		if c.Parent == 0 {
			continue
		}
		if parent, ok := tree[c.Parent]; ok {
			parent.Children = append(parent.Children, c.ID)
		}
	}
	return tree
}

// CategoryPath walks parent links from categoryID to the root and returns
// the segments in root-to-leaf order. A visited set bounds the walk, so a
// cyclic category list terminates instead of spinning.
func (s *CatalogServiceImpl) CategoryPath(ctx context.Context, categoryID int) ([]domain.PathSegment, error) {
	tree, err := s.CategoryTree(ctx)
	if err != nil {
		return nil, err
	}

	path := []domain.PathSegment{}
	visited := make(map[int]bool)
	for id := categoryID; id != 0; {
		node, ok := tree[id]
		if !ok || visited[id] {
			break
		}
		visited[id] = true
		path = append([]domain.PathSegment{{ID: node.ID, Name: node.Name}}, path...)
		id = node.Parent
	}
	return path, nil
}

// CourseEnrollment computes per-course enrollment stats: enrolled count,
// active count (lastaccess > 0), and the most recent access timestamp.
func (s *CatalogServiceImpl) CourseEnrollment(ctx context.Context, courseID int) (*domain.CourseEnrollmentStats, error) {
	key := cache.Key("core_enrol_get_enrolled_users", map[string]any{"courseid": courseID})
	if v, ok := s.cache.Get(ctx, key); ok {
		if stats, ok := cachedAs[*domain.CourseEnrollmentStats](v); ok {
			return stats, nil
		}
		if stats, ok := cachedAs[domain.CourseEnrollmentStats](v); ok {
			return &stats, nil
		}
	}

	users, err := s.moodle.GetEnrolledUsers(ctx, courseID)
	if err != nil {
		s.log.Error().Err(err).Int("course_id", courseID).Msg("enrollment fetch failed")
		return nil, err
	}

	stats := &domain.CourseEnrollmentStats{CourseID: courseID, EnrolledCount: len(users)}
	for _, u := range users {
		if u.LastAccess > 0 {
			stats.ActiveCount++
		}
		if u.LastAccess > stats.LastAccess {
			stats.LastAccess = u.LastAccess
		}
	}
	s.cache.Set(ctx, key, stats)
	return stats, nil
}

// CourseStatistics aggregates the dashboard summary from data already on
// hand: total courses, total enrollments summed from each course's
// enrolledusercount, per-category counts from each category's own
// coursecount, and the five most recently modified courses. No per-course
// re-fetch happens here.
func (s *CatalogServiceImpl) CourseStatistics(ctx context.Context) (*domain.CourseStats, error) {
	courses, err := s.fetchCourses(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.fetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.CourseStats{
		TotalCourses:      len(courses),
		CoursesByCategory: make(map[int]int, len(cats)),
	}
	for _, c := range courses {
		stats.TotalEnrollments += c.EnrolledUserCount
	}
	for _, cat := range cats {
		stats.CoursesByCategory[cat.ID] = cat.CourseCount
	}

	recent := make([]domain.Course, len(courses))
	copy(recent, courses)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].TimeModified > recent[j].TimeModified
	})
	if len(recent) > recentCourseCount {
		recent = recent[:recentCourseCount]
	}
	stats.RecentCourses = recent
	return stats, nil
}

// CategoryStatistics sums enrollment across every course of one category.
// The per-course enrollment calls fan out through a fixed-size worker pool
// rather than sequentially or unbounded. A course whose enrollment fetch
// fails is skipped and logged; the aggregate covers the courses that
// answered.
func (s *CatalogServiceImpl) CategoryStatistics(ctx context.Context, categoryID int) (*domain.CategoryStats, error) {
	courses, _, err := s.ListCourses(ctx, domain.CourseListOptions{CategoryID: categoryID})
	if err != nil {
		return nil, err
	}

	stats := &domain.CategoryStats{CategoryID: categoryID, CourseCount: len(courses)}
	if len(courses) == 0 {
		return stats, nil
	}

	jobs := make(chan int)
	results := make(chan *domain.CourseEnrollmentStats, len(courses))
	var wg sync.WaitGroup

	workers := enrollmentWorkers
	if workers > len(courses) {
		workers = len(courses)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for courseID := range jobs {
				enrollment, err := s.CourseEnrollment(ctx, courseID)
				if err != nil {
					s.log.Warn().Err(err).Int("course_id", courseID).Msg("skipping course in category stats")
					continue
				}
				results <- enrollment
			}
		}()
	}

	for _, c := range courses {
		jobs <- c.ID
	}
	close(jobs)
	wg.Wait()
	close(results)

	for enrollment := range results {
		stats.TotalEnrollments += enrollment.EnrolledCount
		stats.TotalActive += enrollment.ActiveCount
	}
	return stats, nil
}

// UserCourses lists the courses a user is enrolled in.
func (s *CatalogServiceImpl) UserCourses(ctx context.Context, userID int) ([]domain.Course, error) {
	key := cache.Key("core_enrol_get_users_courses", map[string]any{"userid": userID})
	if v, ok := s.cache.Get(ctx, key); ok {
		if courses, ok := cachedAs[[]domain.Course](v); ok {
			return courses, nil
		}
	}
	courses, err := s.moodle.GetUserCourses(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Int("user_id", userID).Msg("user course fetch failed")
		return nil, err
	}
	s.cache.Set(ctx, key, courses)
	return courses, nil
}

// UserRoles returns the role shortnames a user holds in a course.
func (s *CatalogServiceImpl) UserRoles(ctx context.Context, courseID, userID int) ([]string, error) {
	key := cache.Key("core_enrol_get_course_user_roles", map[string]any{"courseid": courseID, "userid": userID})
	if v, ok := s.cache.Get(ctx, key); ok {
		if roles, ok := cachedAs[[]string](v); ok {
			return roles, nil
		}
	}
	roles, err := s.moodle.GetUserRoles(ctx, courseID, userID)
	if err != nil {
		s.log.Error().Err(err).Int("course_id", courseID).Int("user_id", userID).Msg("user role fetch failed")
		return nil, err
	}
	s.cache.Set(ctx, key, roles)
	return roles, nil
}

// ClearCache drops every cached entry. Operator action, exposed on the
// admin API.
func (s *CatalogServiceImpl) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
}
