package database

import "voidline/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserSettings{},
		&models.Follow{},
		&models.Post{},
		&models.VoidPost{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Like{},
		&models.Save{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.MessageReaction{},
		&models.StickerPack{},
		&models.Sticker{},
		&models.Purchase{},
		&models.Report{},
	}
}
