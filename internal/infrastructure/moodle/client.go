package moodle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Mishael-2584/odel-portal/domain"
)

// Moodle web service function names issued by this client. The client is
// strictly read-only against the LMS.
const (
	fnGetCourses       = "core_course_get_courses"
	fnGetCategories    = "core_course_get_categories"
	fnGetEnrolledUsers = "core_enrol_get_enrolled_users"
	fnGetUsersCourses  = "core_enrol_get_users_courses"
	fnGetUsersByField  = "core_user_get_users_by_field"
	fnGetUserRoles     = "core_enrol_get_course_user_roles"
)

// maxErrorBodySize bounds how much of an error response body is read back
// for diagnostics.
const maxErrorBodySize = 16 * 1024

// Client issues form-encoded POST requests against the Moodle web service
// endpoint and normalizes the JSON results. Calls run through a circuit
// breaker so a down LMS fails fast instead of tying up request handlers.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger
}

// NewClient creates a Moodle client for the given web service endpoint.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	settings := gobreaker.Settings{
		Name: "moodle",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Timeout: 60 * time.Second,
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		log:        log,
	}
}

// call posts a web service request and returns the raw JSON body. A non-2xx
// status yields a TransportError; a 2xx body carrying an exception/error/
// errorcode payload yields an APIError.
func (c *Client) call(ctx context.Context, wsfunction string, params url.Values) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		form := url.Values{}
		form.Set("wstoken", c.token)
		form.Set("wsfunction", wsfunction)
		form.Set("moodlewsrestformat", "json")
		for k, vs := range params {
			for _, v := range vs {
				form.Add(k, v)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("moodle: build request for %s: %w", wsfunction, err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("moodle: %s: %w", wsfunction, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, &domain.TransportError{StatusCode: resp.StatusCode, Function: wsfunction}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("moodle: read %s response: %w", wsfunction, err)
		}

		if apiErr := detectAPIError(wsfunction, body); apiErr != nil {
			return nil, apiErr
		}
		return body, nil
	})
}

// detectAPIError inspects a 2xx JSON body for the Moodle error shape
// {exception | error | errorcode}. Array responses can never be errors.
func detectAPIError(wsfunction string, body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var probe struct {
		Exception string `json:"exception"`
		ErrorCode string `json:"errorcode"`
		Error     string `json:"error"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}
	if probe.Exception == "" && probe.ErrorCode == "" && probe.Error == "" {
		return nil
	}
	msg := probe.Message
	if msg == "" {
		msg = probe.Error
	}
	return &domain.APIError{
		Function:  wsfunction,
		Exception: probe.Exception,
		ErrorCode: probe.ErrorCode,
		Message:   msg,
	}
}

// GetCourses fetches the full unfiltered course list. Moodle serves courses
// with id 1 as the site front page; it is filtered out here.
func (c *Client) GetCourses(ctx context.Context) ([]domain.Course, error) {
	body, err := c.call(ctx, fnGetCourses, nil)
	if err != nil {
		return nil, err
	}
	var raw []rawCourse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetCourses, err)
	}
	courses := make([]domain.Course, 0, len(raw))
	for _, r := range raw {
		if r.ID == 1 {
			continue
		}
		courses = append(courses, r.toDomain())
	}
	return courses, nil
}

// GetCategories fetches the flat category list.
func (c *Client) GetCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.call(ctx, fnGetCategories, nil)
	if err != nil {
		return nil, err
	}
	var cats []domain.Category
	if err := json.Unmarshal(body, &cats); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetCategories, err)
	}
	return cats, nil
}

// GetEnrolledUsers lists users enrolled in a course.
func (c *Client) GetEnrolledUsers(ctx context.Context, courseID int) ([]domain.MoodleUser, error) {
	params := url.Values{}
	params.Set("courseid", strconv.Itoa(courseID))
	body, err := c.call(ctx, fnGetEnrolledUsers, params)
	if err != nil {
		return nil, err
	}
	var users []domain.MoodleUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetEnrolledUsers, err)
	}
	return users, nil
}

// GetUserByID looks a user up by their LMS id.
func (c *Client) GetUserByID(ctx context.Context, userID int) (*domain.MoodleUser, error) {
	return c.getUserByField(ctx, "id", strconv.Itoa(userID))
}

// GetUserByEmail looks a user up by email address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.MoodleUser, error) {
	return c.getUserByField(ctx, "email", email)
}

func (c *Client) getUserByField(ctx context.Context, field, value string) (*domain.MoodleUser, error) {
	params := url.Values{}
	params.Set("field", field)
	params.Set("values[0]", value)
	body, err := c.call(ctx, fnGetUsersByField, params)
	if err != nil {
		return nil, err
	}
	var users []domain.MoodleUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetUsersByField, err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// GetUserCourses lists the courses a user is enrolled in.
func (c *Client) GetUserCourses(ctx context.Context, userID int) ([]domain.Course, error) {
	params := url.Values{}
	params.Set("userid", strconv.Itoa(userID))
	body, err := c.call(ctx, fnGetUsersCourses, params)
	if err != nil {
		return nil, err
	}
	var raw []rawCourse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetUsersCourses, err)
	}
	courses := make([]domain.Course, 0, len(raw))
	for _, r := range raw {
		courses = append(courses, r.toDomain())
	}
	return courses, nil
}

// GetUserRoles returns the shortnames of the roles a user holds in a course.
func (c *Client) GetUserRoles(ctx context.Context, courseID, userID int) ([]string, error) {
	params := url.Values{}
	params.Set("courseid", strconv.Itoa(courseID))
	params.Set("userid", strconv.Itoa(userID))
	body, err := c.call(ctx, fnGetUserRoles, params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Roles []struct {
			ShortName string `json:"shortname"`
		} `json:"roles"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("moodle: decode %s: %w", fnGetUserRoles, err)
	}
	roles := make([]string, 0, len(resp.Roles))
	for _, r := range resp.Roles {
		roles = append(roles, r.ShortName)
	}
	return roles, nil
}

var _ domain.MoodleClient = (*Client)(nil)

// rawCourse tolerates the loosely-typed payloads the LMS emits: fields may be
// absent, and categoryid appears as "category" on some endpoints. Missing
// strings default to "" at this boundary so nothing downstream has to care.
type rawCourse struct {
	ID                int    `json:"id"`
	FullName          string `json:"fullname"`
	ShortName         string `json:"shortname"`
	DisplayName       string `json:"displayname"`
	Summary           string `json:"summary"`
	CategoryID        int    `json:"categoryid"`
	Category          int    `json:"category"`
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

func (r rawCourse) toDomain() domain.Course {
	categoryID := r.CategoryID
	if categoryID == 0 {
		categoryID = r.Category
	}
	fullName := r.FullName
	if fullName == "" {
		fullName = r.DisplayName
	}
	return domain.Course{
		ID:                r.ID,
		FullName:          fullName,
		ShortName:         r.ShortName,
		Summary:           r.Summary,
		CategoryID:        categoryID,
		CategoryName:      r.CategoryName,
		IDNumber:          r.IDNumber,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		EnrolledUserCount: r.EnrolledUserCount,
		Visible:           r.Visible,
		Format:            r.Format,
		Lang:              r.Lang,
		TimeCreated:       r.TimeCreated,
		TimeModified:      r.TimeModified,
	}
}
