package mocks

import (
	"context"

	"github.com/Mishael-2584/odel-portal/domain"
)

// MockMoodleClient implements domain.MoodleClient interface for testing
type MockMoodleClient struct {
	GetCoursesFunc       func(ctx context.Context) ([]domain.Course, error)
	GetCategoriesFunc    func(ctx context.Context) ([]domain.Category, error)
	GetEnrolledUsersFunc func(ctx context.Context, courseID int) ([]domain.MoodleUser, error)
	GetUserByIDFunc      func(ctx context.Context, userID int) (*domain.MoodleUser, error)
	GetUserByEmailFunc   func(ctx context.Context, email string) (*domain.MoodleUser, error)
	GetUserCoursesFunc   func(ctx context.Context, userID int) ([]domain.Course, error)
	GetUserRolesFunc     func(ctx context.Context, courseID, userID int) ([]string, error)
}

// NewMockMoodleClient creates a new MockMoodleClient with default behaviors
func NewMockMoodleClient() *MockMoodleClient {
	return &MockMoodleClient{}
}

// GetCourses fetches the course list
func (m *MockMoodleClient) GetCourses(ctx context.Context) ([]domain.Course, error) {
	if m.GetCoursesFunc != nil {
		return m.GetCoursesFunc(ctx)
	}
	return []domain.Course{}, nil
}

// GetCategories fetches the category list
func (m *MockMoodleClient) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if m.GetCategoriesFunc != nil {
		return m.GetCategoriesFunc(ctx)
	}
	return []domain.Category{}, nil
}

// GetEnrolledUsers lists users enrolled in a course
func (m *MockMoodleClient) GetEnrolledUsers(ctx context.Context, courseID int) ([]domain.MoodleUser, error) {
	if m.GetEnrolledUsersFunc != nil {
		return m.GetEnrolledUsersFunc(ctx, courseID)
	}
	return []domain.MoodleUser{}, nil
}

// GetUserByID looks a user up by id
func (m *MockMoodleClient) GetUserByID(ctx context.Context, userID int) (*domain.MoodleUser, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, userID)
	}
	return nil, nil
}

// GetUserByEmail looks a user up by email
func (m *MockMoodleClient) GetUserByEmail(ctx context.Context, email string) (*domain.MoodleUser, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, nil
}

// GetUserCourses lists a user's enrolled courses
func (m *MockMoodleClient) GetUserCourses(ctx context.Context, userID int) ([]domain.Course, error) {
	if m.GetUserCoursesFunc != nil {
		return m.GetUserCoursesFunc(ctx, userID)
	}
	return []domain.Course{}, nil
}

// GetUserRoles returns a user's roles in a course
func (m *MockMoodleClient) GetUserRoles(ctx context.Context, courseID, userID int) ([]string, error) {
	if m.GetUserRolesFunc != nil {
		return m.GetUserRolesFunc(ctx, courseID, userID)
	}
	return []string{}, nil
}

// Compile-time interface compliance verification
var _ domain.MoodleClient = (*MockMoodleClient)(nil)
