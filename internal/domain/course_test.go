package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lessons(completed ...bool) []Lesson {
	out := make([]Lesson, len(completed))
	for i, c := range completed {
		out[i] = Lesson{ID: string(rune('a' + i)), Completed: c, Duration: 10}
	}
	return out
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestModule_Recompute(t *testing.T) {
	m := Module{Lessons: lessons(true, true, false), Progress: 99, TotalLessons: 10}
	m.Recompute()

	assert.Equal(t, 3, m.TotalLessons)
	assert.Equal(t, 2, m.CompletedLessons)
	assert.Equal(t, 67, m.Progress)
	assert.False(t, m.Complete())
}

func TestModule_RecomputeWithoutLessonsKeepsCounters(t *testing.T) {
	m := Module{TotalLessons: 4, CompletedLessons: 1}
	m.Recompute()
	assert.Equal(t, 25, m.Progress)

	empty := Module{}
	empty.Recompute()
	assert.Equal(t, 0, empty.Progress)
	assert.False(t, empty.Complete())
}

func TestCourse_Recompute(t *testing.T) {
	c := Course{
		Progress: 5,
		Modules: []Module{
			{Lessons: lessons(true, true)},
			{Lessons: lessons(true, false)},
			{Lessons: lessons(false)},
			{Lessons: lessons(true)},
		},
	}
	c.Recompute()

	assert.Equal(t, 4, c.TotalModules)
	assert.Equal(t, 2, c.CompletedModules)
	assert.Equal(t, 50, c.Progress)
	assert.Equal(t, 50, c.Modules[1].Progress)
}

func TestCourse_RecomputeNoModules(t *testing.T) {
	c := Course{Progress: 70}
	c.Recompute()
	assert.Equal(t, 0, c.Progress)
}

func TestSummarizeModules(t *testing.T) {
	s := SummarizeModules([]Module{
		{Lessons: lessons(true, false, true)},
		{Lessons: lessons(false)},
		{TotalLessons: 2, CompletedLessons: 2},
	})

	assert.Equal(t, 6, s.TotalLessons)
	assert.Equal(t, 4, s.CompletedLessons)
	assert.Equal(t, 40, s.DurationMinutes)
	assert.Equal(t, 67, s.Progress)

	assert.Equal(t, ModuleSummary{}, SummarizeModules(nil))
}

func TestModule_NextLesson(t *testing.T) {
	m := Module{Lessons: lessons(false, false)}

	next, ok := m.NextLesson("a")
	assert.True(t, ok)
	assert.Equal(t, "b", next.ID)

	_, ok = m.NextLesson("b")
	assert.False(t, ok)
	_, ok = m.NextLesson("missing")
	assert.False(t, ok)
}
