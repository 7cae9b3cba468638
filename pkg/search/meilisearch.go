package search

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const courseIndex = "courses"

// CourseDocument is the searchable projection of a course.
type CourseDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Department  string `json:"department"`
	Credits     int    `json:"credits"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
}

// CourseIndex keeps the course catalogue searchable.
type CourseIndex interface {
	IndexCourse(doc CourseDocument) error
	DeleteCourse(id string) error
	// SearchCourses returns ids of active courses matching query, best match first.
	SearchCourses(query string, limit int) ([]string, error)
}

type meiliCourseIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

// NewMeiliCourseIndex wraps a Meilisearch client and prepares the courses index settings.
func NewMeiliCourseIndex(host, apiKey string) CourseIndex {
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host
	}
	s := &meiliCourseIndex{
		client:    meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliCourseIndex) initIndex() {
	filterableAttrs := []string{"is_active", "department", "credits"}
	filterable := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterable[i] = v
	}
	if _, err := s.client.Index(courseIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("failed to update courses filterable attributes", "error", err)
	}

	sortable := []string{"created_at", "credits"}
	if _, err := s.client.Index(courseIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("failed to update courses sortable attributes", "error", err)
	}
}

func (s *meiliCourseIndex) IndexCourse(doc CourseDocument) error {
	doc.Description = CleanText(s.sanitizer, doc.Description)

	task, err := s.client.Index(courseIndex).AddDocuments([]CourseDocument{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index course %s: %w", doc.ID, err)
	}
	slog.Debug("indexed course", "course_id", doc.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliCourseIndex) DeleteCourse(id string) error {
	_, err := s.client.Index(courseIndex).DeleteDocument(id)
	return err
}

func (s *meiliCourseIndex) SearchCourses(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	raw, err := s.client.Index(courseIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter:               "is_active = true",
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}

	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("decode course hits: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// CleanText turns rich text into plain searchable text.
func CleanText(policy *bluemonday.Policy, content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")
	content = strings.ReplaceAll(content, "</li>", " ")

	sanitized := policy.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func strPtr(s string) *string {
	return &s
}
