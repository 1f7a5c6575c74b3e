package web

import "net/http"

// Stat is a dashboard metric card. The numbers are static mock data;
// the platform has no analytics endpoint yet.
type Stat struct {
	Icon   string
	Label  string
	Value  string
	Change string
	Color  string
}

// Activity is a dashboard recent-activity row.
type Activity struct {
	Student string
	Action  string
	Course  string
	Time    string
}

// CourseStat is a dashboard top-course row.
type CourseStat struct {
	Name       string
	Students   int
	Completion int
	Trend      string
}

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	stats := []Stat{
		{Icon: "👥", Label: "Total Students", Value: "1,234", Change: "+12%", Color: "blue"},
		{Icon: "📚", Label: "Active Courses", Value: "48", Change: "+5%", Color: "purple"},
		{Icon: "✅", Label: "Completed Lessons", Value: "3,456", Change: "+18%", Color: "green"},
		{Icon: "⭐", Label: "Average Rating", Value: "4.8", Change: "+0.3", Color: "orange"},
	}

	activities := []Activity{
		{Student: "Emma Wilson", Action: "completed", Course: "Math Basics", Time: "2 mins ago"},
		{Student: "Oliver Brown", Action: "started", Course: "Science Fun", Time: "15 mins ago"},
		{Student: "Sophia Davis", Action: "achieved", Course: "English Reading", Time: "1 hour ago"},
		{Student: "Noah Martinez", Action: "completed", Course: "Art & Craft", Time: "2 hours ago"},
		{Student: "Ava Garcia", Action: "started", Course: "Music Basics", Time: "3 hours ago"},
	}

	courses := []CourseStat{
		{Name: "Math Adventures", Students: 234, Completion: 85, Trend: "up"},
		{Name: "Science Explorers", Students: 198, Completion: 78, Trend: "up"},
		{Name: "English Stories", Students: 187, Completion: 92, Trend: "up"},
		{Name: "Creative Arts", Students: 156, Completion: 88, Trend: "down"},
		{Name: "Music & Rhythm", Students: 143, Completion: 75, Trend: "up"},
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Stats      []Stat
		Activities []Activity
		Courses    []CourseStat
	}{
		PageData:   PageData{Title: "Dashboard", User: claims},
		Stats:      stats,
		Activities: activities,
		Courses:    courses,
	})
}

// CustomizationOption is a card on the customization hub page.
type CustomizationOption struct {
	Title       string
	Description string
	Icon        string
	Action      string
	Color       string
}

// CustomizationHub handles GET /customization.
func (s *Server) CustomizationHub(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	options := []CustomizationOption{
		{
			Title:       "Add Category",
			Description: "Create new learning categories with items, images, and voice recordings",
			Icon:        "📁",
			Action:      "/customization/add-category",
			Color:       "blue",
		},
		{
			Title:       "Manage Categories",
			Description: "View, edit, and organize existing categories",
			Icon:        "📂",
			Action:      "/customization/manage-categories",
			Color:       "purple",
		},
	}

	s.Templates.Render(w, "customization.html", &struct {
		PageData
		Options []CustomizationOption
	}{
		PageData: PageData{Title: "Customization", User: claims},
		Options:  options,
	})
}

// CatchAll handles "/" and every unknown path by sending the visitor
// to the customization hub.
func (s *Server) CatchAll(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/customization", http.StatusSeeOther)
}
