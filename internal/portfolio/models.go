package portfolio

import "time"

type Profile struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	EnglishName string     `gorm:"type:varchar(100)" json:"english_name"`
	Introduce   string     `gorm:"type:text" json:"introduce"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Email       string     `gorm:"type:varchar(200)" json:"email"`
	Phone       string     `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

func (Profile) TableName() string { return "portfolio_profiles" }

type Skill struct {
	ID       uint64  `gorm:"primaryKey;autoIncrement" json:"-"`
	Name     string  `gorm:"type:varchar(100);not null" json:"name"`
	Category string  `gorm:"type:varchar(50);index" json:"category"`
	Order    int     `gorm:"column:display_order;index" json:"order"`
	Level    float64 `json:"level"` // 0.0 - 5.0
}

func (Skill) TableName() string { return "portfolio_skills" }

type Experience struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Company     string     `gorm:"type:varchar(200);not null" json:"company"`
	Position    string     `gorm:"type:varchar(100)" json:"position"`
	StartDate   time.Time  `gorm:"index" json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
	IsCurrent   bool       `json:"is_current"`
}

func (Experience) TableName() string { return "portfolio_experiences" }

type Education struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	School     string     `gorm:"type:varchar(100);not null" json:"school"`
	DegreeType string     `gorm:"type:varchar(20)" json:"degree_type"`
	Major      string     `gorm:"type:varchar(50)" json:"major"`
	StartDate  time.Time  `gorm:"index" json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

func (Education) TableName() string { return "portfolio_educations" }
