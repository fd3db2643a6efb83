package domain

import "math"

// Course is a course as served by the LMS API. The counters and progress are
// derived from its modules by Recompute and never trusted from the server.
type Course struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Thumbnail        string   `json:"thumbnail,omitempty"`
	CoverImage       string   `json:"coverImage,omitempty"`
	Instructor       string   `json:"instructor,omitempty"`
	Progress         int      `json:"progress"`
	TotalModules     int      `json:"totalModules"`
	CompletedModules int      `json:"completedModules"`
	Modules          []Module `json:"modules,omitempty"`
}

// Module groups lessons inside a course.
type Module struct {
	ID               string   `json:"id"`
	CourseID         string   `json:"courseId"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary,omitempty"`
	CoverImage       string   `json:"coverImage,omitempty"`
	Progress         int      `json:"progress"`
	TotalLessons     int      `json:"totalLessons"`
	CompletedLessons int      `json:"completedLessons"`
	Lessons          []Lesson `json:"lessons,omitempty"`
}

// Lesson is a single unit of content. Duration is in minutes.
type Lesson struct {
	ID        string        `json:"id"`
	ModuleID  string        `json:"moduleId"`
	Title     string        `json:"title"`
	Type      ContentType   `json:"type"`
	Content   LessonContent `json:"content"`
	Completed bool          `json:"completed"`
	Duration  int           `json:"duration,omitempty"`
}

// Percent returns round(completed*100/total), or 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// Recompute derives the lesson counters and progress from the lessons. A
// module with no lessons loaded keeps whatever counters it already had.
func (m *Module) Recompute() {
	if len(m.Lessons) > 0 {
		m.TotalLessons = len(m.Lessons)
		m.CompletedLessons = 0
		for _, l := range m.Lessons {
			if l.Completed {
				m.CompletedLessons++
			}
		}
	}
	m.Progress = Percent(m.CompletedLessons, m.TotalLessons)
}

// Complete reports whether every lesson in the module is done.
func (m *Module) Complete() bool {
	return m.TotalLessons > 0 && m.CompletedLessons == m.TotalLessons
}

// Recompute derives module counters and progress from the modules, after
// recomputing each module.
func (c *Course) Recompute() {
	if len(c.Modules) > 0 {
		c.TotalModules = len(c.Modules)
		c.CompletedModules = 0
		for i := range c.Modules {
			c.Modules[i].Recompute()
			if c.Modules[i].Complete() {
				c.CompletedModules++
			}
		}
	}
	c.Progress = Percent(c.CompletedModules, c.TotalModules)
}

// ModuleSummary aggregates lesson counts and duration over a set of modules.
type ModuleSummary struct {
	TotalLessons     int `json:"totalLessons"`
	CompletedLessons int `json:"completedLessons"`
	DurationMinutes  int `json:"durationMinutes"`
	Progress         int `json:"progress"`
}

// SummarizeModules sums lessons, completions and durations across modules.
func SummarizeModules(modules []Module) ModuleSummary {
	var s ModuleSummary
	for _, m := range modules {
		if len(m.Lessons) == 0 {
			s.TotalLessons += m.TotalLessons
			s.CompletedLessons += m.CompletedLessons
			continue
		}
		for _, l := range m.Lessons {
			s.TotalLessons++
			if l.Completed {
				s.CompletedLessons++
			}
			s.DurationMinutes += l.Duration
		}
	}
	s.Progress = Percent(s.CompletedLessons, s.TotalLessons)
	return s
}

// NextLesson returns the lesson after id within the module, if any.
func (m *Module) NextLesson(id string) (Lesson, bool) {
	for i, l := range m.Lessons {
		if l.ID == id && i+1 < len(m.Lessons) {
			return m.Lessons[i+1], true
		}
	}
	return Lesson{}, false
}
