package models

// Question is one prompt from the rotating question-of-the-day pool.
type Question struct {
	ID       int    `gorm:"column:id;primaryKey"`
	Text     string `gorm:"column:text;not null"`
	Category string `gorm:"column:category;not null"`
	IsActive bool   `gorm:"column:is_active;not null;default:true"`
}

func (Question) TableName() string {
	return "questions"
}
