package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/course/dto"
	"anoa.com/akademika/internal/modules/course/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/pkg/apperror"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/search"
	"anoa.com/akademika/pkg/storage"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
)

const syllabusFolder = "syllabi"

// maxSearchHits caps how many ids are pulled from the search index per query.
const maxSearchHits = 200

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type CourseService interface {
	CreateCourse(ctx context.Context, actor policy.Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error)
	GetAllCourses(ctx context.Context, filter dto.CourseFilter) (*dto.PaginatedCourseResponse, error)
	UpdateCourse(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	DeactivateCourse(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	UploadSyllabus(ctx context.Context, actor policy.Actor, id uuid.UUID, file commonDto.UploadedFile) (*dto.CourseResponse, error)
}

type courseService struct {
	repo      repository.CourseRepository
	users     UserLookup
	index     search.CourseIndex
	storage   storage.FileStorage
}

// NewCourseService wires the course catalogue. index and fileStorage may be nil when
// Meilisearch or Cloudinary are not configured.
func NewCourseService(repo repository.CourseRepository, users UserLookup, index search.CourseIndex, fileStorage storage.FileStorage) CourseService {
	return &courseService{
		repo:      repo,
		users:     users,
		index:     index,
		storage:   fileStorage,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, actor policy.Actor, req dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if err := policy.Authorize(actor, policy.ActionCourseCreate); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Code = strings.TrimSpace(req.Code)
	req.Department = strings.TrimSpace(req.Department)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	course := &entity.Course{
		Title:       req.Title,
		Code:        req.Code,
		Description: req.Description,
		Credits:     req.Credits,
		Department:  req.Department,
		IsActive:    true,
	}

	switch actor.Role {
	case entity.RoleLecturer:
		course.LecturerID = &actor.UserID
	case entity.RoleAdmin:
		if req.LecturerID != nil {
			if err := s.ensureLecturer(ctx, *req.LecturerID); err != nil {
				return nil, err
			}
			course.LecturerID = req.LecturerID
		}
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, err
	}
	s.reindex(course)

	return s.GetCourse(ctx, course.ID)
}

func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := ToCourseResponse(course)
	return &res, nil
}

func (s *courseService) GetAllCourses(ctx context.Context, filter dto.CourseFilter) (*dto.PaginatedCourseResponse, error) {
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}
	page := commonDto.PageQuery{Page: filter.Page, Limit: filter.Limit}.Normalize()

	if filter.Search != "" && s.index != nil {
		courses, err := s.searchIndex(ctx, filter)
		if err == nil {
			total := int64(len(courses))
			start := min(page.Offset(), len(courses))
			end := min(start+page.Limit, len(courses))
			return &dto.PaginatedCourseResponse{
				Data: ToCourseResponses(courses[start:end]),
				Meta: page.Meta(total),
			}, nil
		}
		slog.Warn("course search index unavailable, falling back to database", "error", err)
	}

	courses, total, err := s.repo.FindAll(ctx, repository.CourseFilter{
		Search:     filter.Search,
		Department: filter.Department,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedCourseResponse{
		Data: ToCourseResponses(courses),
		Meta: page.Meta(total),
	}, nil
}

func (s *courseService) searchIndex(ctx context.Context, filter dto.CourseFilter) ([]*entity.Course, error) {
	hits, err := s.index.SearchCourses(filter.Search, maxSearchHits)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		if id, err := uuid.Parse(h); err == nil {
			ids = append(ids, id)
		}
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// the index may lag behind the database, so re-apply the filters here
	courses := make([]*entity.Course, 0, len(found))
	for _, c := range found {
		if !c.IsActive {
			continue
		}
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionCourseUpdate, course); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Code != nil {
		fields["code"] = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Credits != nil {
		fields["credits"] = *req.Credits
	}
	if req.Department != nil {
		fields["department"] = strings.TrimSpace(*req.Department)
	}
	if req.LecturerID != nil {
		if actor.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("only admins can reassign a course: %w", apperror.ErrForbidden)
		}
		if err := s.ensureLecturer(ctx, *req.LecturerID); err != nil {
			return nil, err
		}
		fields["lecturer_id"] = *req.LecturerID
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(updated)

	res := ToCourseResponse(updated)
	return &res, nil
}

func (s *courseService) DeactivateCourse(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.ActionCourseDeactivate); err != nil {
		return err
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !course.IsActive {
		return nil
	}

	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false, "updated_at": time.Now()}); err != nil {
		return err
	}
	course.IsActive = false
	s.reindex(course)
	slog.Info("course deactivated", "course_id", id, "by", actor.UserID)
	return nil
}

func (s *courseService) UploadSyllabus(ctx context.Context, actor policy.Actor, id uuid.UUID, file commonDto.UploadedFile) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeCourse(actor, policy.ActionCourseUpdate, course); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, fmt.Errorf("file storage is not configured: %w", apperror.ErrUnavailable)
	}

	url, err := s.storage.Upload(ctx, file.Reader, syllabusFolder, file.FileName)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, map[string]any{"syllabus_url": url, "updated_at": time.Now()}); err != nil {
		if delErr := s.storage.Delete(ctx, url); delErr != nil {
			slog.Warn("failed to remove orphaned syllabus", "url", url, "error", delErr)
		}
		return nil, err
	}

	if course.SyllabusURL != nil && *course.SyllabusURL != "" {
		if err := s.storage.Delete(ctx, *course.SyllabusURL); err != nil {
			slog.Warn("failed to delete previous syllabus", "course_id", id, "error", err)
		}
	}

	return s.GetCourse(ctx, id)
}

func (s *courseService) ensureLecturer(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NewValidationError(apperror.FieldError{Field: "lecturer_id", Message: "lecturer_id does not reference a user"})
	}
	if err != nil {
		return err
	}
	if user.Role != entity.RoleLecturer {
		return apperror.NewValidationError(apperror.FieldError{Field: "lecturer_id", Message: "lecturer_id must reference a lecturer"})
	}
	return nil
}

func (s *courseService) reindex(course *entity.Course) {
	if s.index == nil {
		return
	}
	doc := search.CourseDocument{
		ID:          course.ID.String(),
		Title:       course.Title,
		Code:        course.Code,
		Description: course.Description,
		Department:  course.Department,
		Credits:     course.Credits,
		IsActive:    course.IsActive,
		CreatedAt:   course.CreatedAt.Unix(),
	}
	if err := s.index.IndexCourse(doc); err != nil {
		slog.Error("failed to index course", "course_id", course.ID, "error", err)
	}
}

func ToCourseResponse(course *entity.Course) dto.CourseResponse {
	res := dto.CourseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Code:        course.Code,
		Description: course.Description,
		Credits:     course.Credits,
		Department:  course.Department,
		SyllabusURL: course.SyllabusURL,
		IsActive:    course.IsActive,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
	if course.Lecturer != nil {
		res.Lecturer = &dto.LecturerResponse{
			ID:       course.Lecturer.ID,
			Username: course.Lecturer.Username,
			FullName: course.Lecturer.FullName(),
		}
	}
	return res
}

func ToCourseResponses(courses []*entity.Course) []dto.CourseResponse {
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, ToCourseResponse(c))
	}
	return out
}
