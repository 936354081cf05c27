package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/coursemarket-client/internal/clients/backend"
	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/lifecycle"
	"github.com/yungbote/coursemarket-client/internal/observability"
	"github.com/yungbote/coursemarket-client/internal/platform/apierr"
)

const (
	OpFetchCourses     = "fetchCourses"
	OpFetchCourse      = "fetchCourse"
	OpFetchPopular     = "fetchPopular"
	OpFetchRecommended = "fetchRecommended"
	OpFetchPurchased   = "fetchPurchased"
	OpFetchCategories  = "fetchCategories"
	OpFetchLevels      = "fetchLevels"
	OpRecordView       = "recordView"
)

type CourseAPI interface {
	Courses(ctx context.Context, f backend.CourseFilter) ([]domain.Course, error)
	Course(ctx context.Context, id int64) (domain.Course, error)
	PopularCourses(ctx context.Context) ([]domain.Course, error)
	RecommendedCourses(ctx context.Context) ([]domain.Course, error)
	PurchasedCourses(ctx context.Context) ([]domain.Course, error)
	Categories(ctx context.Context) ([]string, error)
	Levels(ctx context.Context) ([]string, error)
	RecordView(ctx context.Context, id int64) (*int, error)
}

// Optimistic is a local change applied ahead of the backend's answer. It is
// confirmed or reverted when the call settles.
type Optimistic struct {
	ID     string    `json:"id"`
	Op     string    `json:"op"`
	Target int64     `json:"target"`
	At     time.Time `json:"at"`
}

type CoursesState struct {
	Courses     []domain.Course             `json:"courses"`
	Current     *domain.Course              `json:"current_course"`
	Popular     []domain.Course             `json:"popular"`
	Recommended []domain.Course             `json:"recommended"`
	Purchased   []domain.Course             `json:"purchased"`
	Categories  []string                    `json:"categories"`
	Levels      []string                    `json:"levels"`
	Filter      backend.CourseFilter        `json:"filter"`
	Pending     []Optimistic                `json:"pending,omitempty"`
	Ops         map[string]lifecycle.Record `json:"ops"`
}

type CourseStore struct {
	base
	api   CourseAPI
	group singleflight.Group

	courses     []domain.Course
	current     *domain.Course
	popular     []domain.Course
	recommended []domain.Course
	purchased   []domain.Course
	categories  []string
	levels      []string
	filter      backend.CourseFilter
	pending     map[string]Optimistic
}

func NewCourseStore(api CourseAPI, d Deps) *CourseStore {
	d = d.withDefaults()
	s := &CourseStore{api: api, pending: map[string]Optimistic{}}
	s.init(ContainerCourses, d)
	return s
}

func (s *CourseStore) Snapshot() CoursesState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := CoursesState{
		Courses:     domain.CloneCourses(s.courses),
		Popular:     domain.CloneCourses(s.popular),
		Recommended: domain.CloneCourses(s.recommended),
		Purchased:   domain.CloneCourses(s.purchased),
		Categories:  append([]string(nil), s.categories...),
		Levels:      append([]string(nil), s.levels...),
		Filter:      s.filter,
		Ops:         s.Ops(),
	}
	if s.current != nil {
		c := s.current.Clone()
		st.Current = &c
	}
	for _, p := range s.pending {
		st.Pending = append(st.Pending, p)
	}
	return st
}

// FetchCourses replaces the catalogue with the filtered list.
func (s *CourseStore) FetchCourses(ctx context.Context, f backend.CourseFilter) ([]domain.Course, error) {
	key := fmt.Sprintf("courses|%s|%s|%s", f.Category, f.Level, f.Search)
	return dispatch(ctx, &s.base, OpFetchCourses, func(ctx context.Context) ([]domain.Course, error) {
		return shared(ctx, &s.group, key, func(ctx context.Context) ([]domain.Course, error) {
			return s.api.Courses(ctx, f)
		})
	}, func(list []domain.Course) {
		s.courses = domain.CloneCourses(list)
		s.filter = f
	})
}

func (s *CourseStore) FetchCourse(ctx context.Context, id int64) (domain.Course, error) {
	return dispatch(ctx, &s.base, OpFetchCourse, func(ctx context.Context) (domain.Course, error) {
		return s.api.Course(ctx, id)
	}, func(c domain.Course) {
		c = c.Clone()
		s.current = &c
	})
}

func (s *CourseStore) FetchPopular(ctx context.Context) ([]domain.Course, error) {
	return s.fetchList(ctx, OpFetchPopular, s.api.PopularCourses, &s.popular)
}

func (s *CourseStore) FetchRecommended(ctx context.Context) ([]domain.Course, error) {
	return s.fetchList(ctx, OpFetchRecommended, s.api.RecommendedCourses, &s.recommended)
}

func (s *CourseStore) FetchPurchased(ctx context.Context) ([]domain.Course, error) {
	return s.fetchList(ctx, OpFetchPurchased, s.api.PurchasedCourses, &s.purchased)
}

func (s *CourseStore) fetchList(ctx context.Context, op string, call func(context.Context) ([]domain.Course, error), dst *[]domain.Course) ([]domain.Course, error) {
	return dispatch(ctx, &s.base, op, func(ctx context.Context) ([]domain.Course, error) {
		return shared(ctx, &s.group, op, call)
	}, func(list []domain.Course) {
		*dst = domain.CloneCourses(list)
	})
}

func (s *CourseStore) FetchCategories(ctx context.Context) ([]string, error) {
	return dispatch(ctx, &s.base, OpFetchCategories, func(ctx context.Context) ([]string, error) {
		return shared(ctx, &s.group, OpFetchCategories, s.api.Categories)
	}, func(v []string) {
		s.categories = append([]string(nil), v...)
	})
}

func (s *CourseStore) FetchLevels(ctx context.Context) ([]string, error) {
	return dispatch(ctx, &s.base, OpFetchLevels, func(ctx context.Context) ([]string, error) {
		return shared(ctx, &s.group, OpFetchLevels, s.api.Levels)
	}, func(v []string) {
		s.levels = append([]string(nil), v...)
	})
}

// LoadHome fetches everything the landing view shows. Each fetch settles its
// own record; one failing does not cancel the others.
func (s *CourseStore) LoadHome(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { _, err := s.FetchPopular(ctx); return err })
	g.Go(func() error { _, err := s.FetchRecommended(ctx); return err })
	g.Go(func() error { _, err := s.FetchCategories(ctx); return err })
	g.Go(func() error { _, err := s.FetchLevels(ctx); return err })
	return g.Wait()
}

// SetCurrent selects a course without a fetch. Nil clears the selection.
func (s *CourseStore) SetCurrent(c *domain.Course) {
	s.mu.Lock()
	if c == nil {
		s.current = nil
	} else {
		cp := c.Clone()
		s.current = &cp
	}
	s.mu.Unlock()
}

// RecordView bumps the view count locally before the backend confirms it.
// On success the backend's count wins if it sent one; on any failure the
// local bump is reverted.
func (s *CourseStore) RecordView(ctx context.Context, id int64) error {
	start := time.Now()
	ctx, span := observability.StartDispatch(ctx, s.name, OpRecordView)
	tk := s.tracker.Begin(OpRecordView)

	opt := Optimistic{ID: uuid.NewString(), Op: OpRecordView, Target: id, At: s.now()}
	s.mu.Lock()
	s.pending[opt.ID] = opt
	s.adjustViews(id, func(n int) int { return n + 1 })
	s.mu.Unlock()

	count, err := s.api.RecordView(ctx, id)

	s.mu.Lock()
	delete(s.pending, opt.ID)
	switch {
	case err != nil:
		s.adjustViews(id, func(n int) int {
			if n > 0 {
				return n - 1
			}
			return 0
		})
	case count != nil:
		v := *count
		s.adjustViews(id, func(int) int { return v })
	}
	s.mu.Unlock()

	// The count is already reconciled above; settle only moves the record.
	status := s.settle(tk, err, nil)
	if err != nil && !apierr.Is(err, apierr.KindCanceled) {
		s.log.Debug("view count reverted", "course_id", id)
	}
	s.metrics.ObserveDispatch(s.name, OpRecordView, status, time.Since(start))
	observability.EndDispatch(span, err)
	return err
}

// adjustViews applies fn to every copy of course id. Caller holds mu.
func (s *CourseStore) adjustViews(id int64, fn func(int) int) {
	if s.current != nil && s.current.ID == id {
		s.current.ViewCount = fn(s.current.ViewCount)
	}
	for _, list := range [][]domain.Course{s.courses, s.popular, s.recommended, s.purchased} {
		for i := range list {
			if list[i].ID == id {
				list[i].ViewCount = fn(list[i].ViewCount)
			}
		}
	}
}

// Reset drops user specific lists and every operation record.
func (s *CourseStore) Reset() {
	s.mu.Lock()
	s.purchased = nil
	s.recommended = nil
	s.mu.Unlock()
	s.tracker.Reset()
}
