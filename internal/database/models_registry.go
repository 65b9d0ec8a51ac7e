package database

import "talkhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Watch{},
		&models.Post{},
		&models.Picture{},
		&models.Video{},
		&models.Comment{},
		&models.Like{},
		&models.Bookmark{},
	}
}
