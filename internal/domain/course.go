package domain

type InstructorSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar,omitempty"`
}

type SyllabusItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Course struct {
	ID               int64             `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Thumbnail        string            `json:"thumbnail"`
	Price            float64           `json:"price"`
	Instructor       InstructorSummary `json:"instructor"`
	Category         string            `json:"category,omitempty"`
	Level            string            `json:"level,omitempty"`
	Duration         string            `json:"duration,omitempty"`
	Rating           float64           `json:"rating"`
	EnrolledStudents int               `json:"enrolled_students"`
	IsEnrolled       bool              `json:"is_enrolled"`
	ViewCount        int               `json:"view_count"`
	Objectives       string            `json:"objectives,omitempty"`
	Requirements     string            `json:"requirements,omitempty"`
	Syllabus         []SyllabusItem    `json:"syllabus,omitempty"`
}

func (c Course) Clone() Course {
	c.Syllabus = append([]SyllabusItem(nil), c.Syllabus...)
	return c
}

func CloneCourses(in []Course) []Course {
	if in == nil {
		return nil
	}
	out := make([]Course, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
