package domain

// StudentDashboard summarises a learner's courses.
type StudentDashboard struct {
	TotalCourses int      `json:"totalCourses"`
	Completed    int      `json:"completed"`
	InProgress   int      `json:"inProgress"`
	NotStarted   int      `json:"notStarted"`
	Continue     []Course `json:"continue"`
}

// BuildStudentDashboard classifies courses by progress: 100 is completed,
// anything strictly between 0 and 100 is in progress.
func BuildStudentDashboard(courses []Course) StudentDashboard {
	d := StudentDashboard{TotalCourses: len(courses), Continue: []Course{}}
	for _, c := range courses {
		switch {
		case c.Progress >= 100:
			d.Completed++
		case c.Progress > 0:
			d.InProgress++
			d.Continue = append(d.Continue, c)
		default:
			d.NotStarted++
		}
	}
	return d
}

// AdminDashboard holds platform-wide counts for administrators.
type AdminDashboard struct {
	TotalUsers   int          `json:"totalUsers"`
	UsersByRole  map[Role]int `json:"usersByRole"`
	TotalCourses int          `json:"totalCourses"`
	TotalModules int          `json:"totalModules"`
	TotalLessons int          `json:"totalLessons"`
}

// BuildAdminDashboard counts users per role and sums course structure.
func BuildAdminDashboard(users []User, courses []Course) AdminDashboard {
	d := AdminDashboard{
		TotalUsers:   len(users),
		UsersByRole:  map[Role]int{RoleAdmin: 0, RoleUser: 0},
		TotalCourses: len(courses),
	}
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = RoleUser
		}
		d.UsersByRole[role]++
	}
	for _, c := range courses {
		if len(c.Modules) == 0 {
			d.TotalModules += c.TotalModules
			continue
		}
		d.TotalModules += len(c.Modules)
		d.TotalLessons += SummarizeModules(c.Modules).TotalLessons
	}
	return d
}
